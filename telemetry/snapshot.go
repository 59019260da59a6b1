package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/warren/components"
)

// AgentState is one live agent as seen by renderers.
type AgentState struct {
	ID      uint32             `json:"id"`
	X       int                `json:"x"`
	Y       int                `json:"y"`
	Species components.Species `json:"species"`
	Alive   bool               `json:"alive"`
}

// Frame is the per-tick view exported to renderers and stream clients.
type Frame struct {
	Tick   int32 `json:"tick"`
	Epoch  int   `json:"epoch"`
	Width  int   `json:"width"`
	Height int   `json:"height"`

	Counts CountsRecord `json:"counts"`
	Agents []AgentState `json:"agents"`
}

// SaveFrame writes a frame as indented JSON into dir and returns the file path.
func SaveFrame(dir string, f *Frame) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating frame directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame_%d.json", f.Tick))

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling frame: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing frame: %w", err)
	}
	return path, nil
}

// LoadFrame reads a frame written by SaveFrame.
func LoadFrame(path string) (*Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing frame: %w", err)
	}
	return &f, nil
}
