package unpack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// DefaultRecordName is the file name of the installation record.
const DefaultRecordName = ".installationinformation"

// Record is the persisted summary of every installation into a directory.
type Record struct {
	// Packs lists installed packs, oldest installation first.
	Packs []RecordedPack `toml:"packs"`

	// Variables is the variable set of the latest installation.
	Variables map[string]string `toml:"variables"`

	// Uninstall lists absolute paths installed by uninstallable packs.
	Uninstall []string `toml:"uninstall,omitempty"`
}

// RecordedPack identifies an installed pack.
type RecordedPack struct {
	Name        string `toml:"name"`
	ID          string `toml:"id,omitempty"`
	Description string `toml:"description,omitempty"`
}

// ReadRecord reads the installation record in dir. A missing record yields
// an empty Record.
func ReadRecord(dir string) (*Record, error) {
	return ReadRecordFile(filepath.Join(dir, DefaultRecordName))
}

// ReadRecordFile reads an installation record. A missing file yields an
// empty Record.
func ReadRecordFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &rec, nil
}

// Merge appends the packs and uninstall paths of next that are not yet
// recorded and replaces the variables.
func (rec *Record) Merge(next *Record) {
	for _, p := range next.Packs {
		if !slices.ContainsFunc(rec.Packs, func(q RecordedPack) bool { return q.Name == p.Name }) {
			rec.Packs = append(rec.Packs, p)
		}
	}
	for _, path := range next.Uninstall {
		if !slices.Contains(rec.Uninstall, path) {
			rec.Uninstall = append(rec.Uninstall, path)
		}
	}
	rec.Variables = next.Variables
}

// writeRecord merges this run into the record in the install path.
func (u *Unpacker) writeRecord(r *run) error {
	rec, err := ReadRecordFile(filepath.Join(r.dir, u.recordName))
	if err != nil {
		return err
	}
	next := &Record{
		Variables: r.variables(),
		Uninstall: r.uninstall,
	}
	for _, p := range r.packs {
		next.Packs = append(next.Packs, RecordedPack{Name: p.Name, ID: p.ID, Description: p.Description})
	}
	rec.Merge(next)

	data, err := toml.Marshal(rec)
	if err != nil {
		return err
	}
	return writeFile(r.root, u.recordName, data, 0o644)
}
