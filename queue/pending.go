package queue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type pendingDoc struct {
	Moves []Move `toml:"move"`
}

// ReadPending loads the moves recorded in a pending-moves file. A missing
// file yields no moves.
func ReadPending(path string) ([]Move, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc pendingDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pending moves %s: %w", path, err)
	}
	return doc.Moves, nil
}

// appendPending adds moves to the pending-moves file, keeping earlier entries.
func appendPending(path string, moves []Move) error {
	existing, err := ReadPending(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(pendingDoc{Moves: append(existing, moves...)})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
