package transcript

import (
	"fmt"
	"os"

	"concretestv/internal/arithmetic"
)

// Save writes t to path in the .transcript JSON format.
func Save(path string, t Transcript, kind arithmetic.Kind) error {
	b, err := MarshalJSON(t, kind)
	if err != nil {
		return fmt.Errorf("transcript: marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("transcript: write %s: %w", path, err)
	}
	return nil
}

// Load reads a .transcript JSON file back into a Transcript, the inverse of
// Save. kind must match the Kind the file was saved with.
func Load(path string, kind arithmetic.Kind) (Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcript: read %s: %w", path, err)
	}
	t, err := UnmarshalJSON(b, kind)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcript: %s: %w", path, err)
	}
	return t, nil
}
