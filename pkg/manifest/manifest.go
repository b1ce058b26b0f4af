package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Settings are the generation options an output was written with.
type Settings struct {
	Types      []string `yaml:"types,omitempty" json:"types,omitempty"`
	Suffix     string   `yaml:"suffix,omitempty" json:"suffix,omitempty"`
	TrimPrefix bool     `yaml:"trim_prefix" json:"trim_prefix"`
	Derives    []string `yaml:"derives,omitempty" json:"derives,omitempty"`
	GoVersion  string   `yaml:"go_version,omitempty" json:"go_version,omitempty"`
}

// Output represents a generated file entry in the manifest.
type Output struct {
	Package string `yaml:"package" json:"package"`
	Dir     string `yaml:"dir" json:"dir"`
	File    string `yaml:"file" json:"file"`
	// Types lists the enums that produced a record.
	Types    []string `yaml:"types,omitempty" json:"types,omitempty"`
	Settings Settings `yaml:"settings" json:"settings"`
	Checksum string   `yaml:"checksum" json:"checksum"`
}

// Path returns the location of the generated file.
func (o Output) Path() string {
	return filepath.Join(o.Dir, o.File)
}

// Manifest tracks the files written by the generator.
type Manifest struct {
	Generator string   `yaml:"generator" json:"generator"`
	Version   string   `yaml:"version" json:"version"`
	Outputs   []Output `yaml:"outputs" json:"outputs"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Record adds o, replacing an existing entry for the same file. Outputs stay
// sorted by path.
func (m *Manifest) Record(o Output) {
	for i := range m.Outputs {
		if m.Outputs[i].Path() == o.Path() {
			m.Outputs[i] = o
			return
		}
	}

	m.Outputs = append(m.Outputs, o)
	slices.SortFunc(m.Outputs, func(a, b Output) int {
		switch {
		case a.Path() < b.Path():
			return -1
		case a.Path() > b.Path():
			return 1
		}
		return 0
	})
}

// Find returns the entry recorded for the file at path.
func (m *Manifest) Find(path string) (Output, bool) {
	path = filepath.Clean(path)
	for _, o := range m.Outputs {
		if o.Path() == path {
			return o, true
		}
	}
	return Output{}, false
}

// Checksum returns the hex encoded sha256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
