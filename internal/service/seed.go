package service

import (
	"encoding/json"
	"fmt"

	"github.com/pkordes/tripboard/seed"
)

// loadSeed decodes one bundled default document.
func loadSeed[T any](name string) (T, error) {
	var v T
	data, err := seed.FS.ReadFile(name)
	if err != nil {
		return v, fmt.Errorf("read seed %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode seed %s: %w", name, err)
	}
	return v, nil
}
