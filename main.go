package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/warren/components"
	"github.com/pthm-cable/warren/config"
	"github.com/pthm-cable/warren/game"
	"github.com/pthm-cable/warren/neural"
	"github.com/pthm-cable/warren/storage"
	"github.com/pthm-cable/warren/stream"
	"github.com/pthm-cable/warren/telemetry"
	"github.com/pthm-cable/warren/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dumpDir := flag.String("dump-dir", "", "Directory for operator dumps when no output dir is set")
	dbPath := flag.String("db", "", "SQLite database for runs, counts and seeds (empty = disabled)")
	resume := flag.Bool("resume", false, "Seed the first generation from the latest stored policies (needs -db)")
	listRuns := flag.Bool("list-runs", false, "List stored runs with their reset counts and exit (needs -db)")
	listen := flag.String("listen", "", "Address for the websocket frame stream, e.g. :8080 (empty = disabled)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	if *listRuns && *dbPath == "" {
		slog.Error("-list-runs needs -db")
		os.Exit(1)
	}

	var (
		db    *storage.DB
		runID string
	)
	if *dbPath != "" {
		db, err = storage.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if *listRuns {
			if err := logRuns(db); err != nil {
				slog.Error("failed to list runs", "error", err)
			}
			return
		}
		if runID, err = db.NewRun(rngSeed, cfg); err != nil {
			slog.Error("failed to register run", "error", err)
			os.Exit(1)
		}
		slog.Info("run registered", "run", runID, "db", *dbPath)
	}

	opts := game.Options{
		Config:    cfg,
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		DumpDir:   *dumpDir,
	}
	if *resume {
		if db == nil {
			slog.Error("-resume needs -db")
			os.Exit(1)
		}
		opts.Seeds = loadSeeds(db, cfg, rngSeed)
	}
	if db != nil {
		opts.OnReset = func(ev telemetry.ResetEvent, seeds []game.Seed) {
			if err := db.SaveReset(runID, ev); err != nil {
				slog.Error("failed to save reset", "error", err)
			}
			for _, s := range seeds {
				if err := db.SaveSeed(runID, ev.Tick, s.Species, s.FoodEaten, s.Policy); err != nil {
					slog.Error("failed to save seed", "species", s.Species.String(), "error", err)
				}
			}
		}
	}

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	var hub *stream.Hub
	if *listen != "" {
		hub = stream.NewHub(cfg.World.Width, cfg.World.Height, func(name string) error {
			c, err := game.ParseCommand(name)
			if err != nil {
				return err
			}
			g.Enqueue(c)
			return nil
		})
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: *listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("stream server failed", "error", err)
			}
		}()
		defer srv.Close()
		slog.Info("streaming frames", "addr", *listen)
	}

	broadcast := func(f *telemetry.Frame) {
		if hub != nil && hub.Len() > 0 {
			hub.Broadcast(f)
		}
	}

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"max_ticks", *maxTicks,
			"cells", humanize.Comma(int64(cfg.World.Width*cfg.World.Height)),
		)

		for ctx.Err() == nil {
			g.Step()
			if hub != nil {
				broadcast(g.Frame())
			}
			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", humanize.Comma(int64(g.Tick())))
				break
			}
		}
	} else {
		v := ui.NewViewer(g)
		v.OnFrame = broadcast
		v.Run(*maxTicks)
	}

	for _, s := range []components.Species{components.SpeciesForager, components.SpeciesPredator, components.SpeciesFood} {
		mean, std := g.History().Summary(s)
		slog.Info("population summary", "species", s.String(), "mean", mean, "std", std)
	}

	if db != nil {
		if err := db.SaveCounts(runID, g.History().Records()); err != nil {
			slog.Error("failed to save counts", "error", err)
		}
	}
}

// logRuns logs every stored run with the number of resets it recorded.
func logRuns(db *storage.DB) error {
	runs, err := db.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		n, err := db.ResetCount(r.ID)
		if err != nil {
			return err
		}
		slog.Info("stored run", "run", r.ID, "seed", r.Seed, "started_at", r.StartedAt, "resets", n)
	}
	slog.Info("runs listed", "count", len(runs))
	return nil
}

// loadSeeds restores the latest stored forager and predator policies.
// Species without a stored seed start from fresh policies.
func loadSeeds(db *storage.DB, cfg *config.Config, seed int64) map[components.Species]neural.Policy {
	factory := neural.NewFactory(rand.New(rand.NewSource(seed)), game.PolicyConfig(cfg))
	inputs := game.PolicyConfig(cfg).Inputs

	seeds := make(map[components.Species]neural.Policy)
	for _, s := range []components.Species{components.SpeciesForager, components.SpeciesPredator} {
		p := factory(inputs)
		rec, err := db.LoadSeedInto(s, p)
		if errors.Is(err, storage.ErrNoSeed) {
			slog.Info("no stored seed", "species", s.String())
			continue
		}
		if err != nil {
			slog.Error("failed to load seed", "species", s.String(), "error", err)
			continue
		}
		slog.Info("seed restored", "species", s.String(), "run", rec.RunID, "tick", rec.Tick, "food_eaten", rec.FoodEaten)
		seeds[s] = p
	}
	return seeds
}
