package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ReadFiles reads each path in order and returns the raw texts, ready for
// press.Join. Nothing is normalized here.
func ReadFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	sources := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", p, err)
		}
		sources = append(sources, string(data))
	}
	return sources, nil
}

// Manifest describes corpora to import in bulk:
//
//	corpora:
//	  - name: moby
//	    files: [moby1.txt, moby2.txt]
type Manifest struct {
	Corpora []ManifestEntry `yaml:"corpora"`
}

type ManifestEntry struct {
	Name  string   `yaml:"name"`
	Files []string `yaml:"files"`
}

// LoadManifest parses a YAML manifest. Relative file paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Corpora) == 0 {
		return nil, fmt.Errorf("manifest %s: no corpora listed", path)
	}

	base := filepath.Dir(path)
	for i, entry := range m.Corpora {
		if entry.Name == "" {
			return nil, fmt.Errorf("manifest %s: entry %d: %w", path, i, ErrNameRequired)
		}
		if len(entry.Files) == 0 {
			return nil, fmt.Errorf("manifest %s: corpus %q: %w", path, entry.Name, ErrNoSources)
		}
		for j, f := range entry.Files {
			if !filepath.IsAbs(f) {
				m.Corpora[i].Files[j] = filepath.Join(base, f)
			}
		}
	}
	return &m, nil
}

// Import creates every corpus of the manifest in order and stops at the
// first failure. Already created corpora are kept.
func (s *Service) Import(ctx context.Context, m *Manifest) ([]*Corpus, error) {
	if m == nil {
		return nil, errors.New("import: nil manifest")
	}
	out := make([]*Corpus, 0, len(m.Corpora))
	for _, entry := range m.Corpora {
		sources, err := ReadFiles(entry.Files)
		if err != nil {
			return out, fmt.Errorf("import %q: %w", entry.Name, err)
		}
		c, err := s.Create(ctx, CreateInput{Name: entry.Name, Sources: sources})
		if err != nil {
			return out, fmt.Errorf("import %q: %w", entry.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}
