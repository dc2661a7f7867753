// Package dataset loads the input tables of a ranking run. A TOML
// manifest names the tables; Load reads them into the interaction graph
// and the feature stores; Watcher reports when any of them changes.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrNoManifest is returned when the manifest file does not exist.
var ErrNoManifest = errors.New("dataset manifest not found")

// ErrNoPPI is returned when the manifest does not name an interaction
// table.
var ErrNoPPI = errors.New("dataset manifest has no ppi table")

// Manifest describes where a dataset's tables live.
type Manifest struct {
	Dataset Tables  `toml:"dataset"`
	Columns Columns `toml:"columns"`

	// Dir is the directory relative table paths are resolved against.
	Dir string `toml:"-"`
}

// Tables names each input file. Only PPI is required.
type Tables struct {
	Name         string `toml:"name"`
	PPI          string `toml:"ppi"`
	Expression   string `toml:"expression"`
	Localization string `toml:"localization"`
	Orthology    string `toml:"orthology"`
	Ontology     string `toml:"ontology"` // defaults to the ppi table
	GoldStandard string `toml:"gold_standard"`
}

// Columns selects columns in tables whose layout varies between sources.
type Columns struct {
	LocalizationLabel int    `toml:"localization_label"`
	OrthologyScore    string `toml:"orthology_score"`
}

// DefaultColumns returns label column 2 and the O_score column.
func DefaultColumns() Columns {
	return Columns{
		LocalizationLabel: 2,
		OrthologyScore:    "O_score",
	}
}

// LoadManifest reads a manifest and resolves its table paths against the
// manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m := Manifest{Columns: DefaultColumns()}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest path: %w", err)
	}
	m.Dir = filepath.Dir(abs)
	m.resolve()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) resolve() {
	if m.Dataset.Ontology == "" {
		m.Dataset.Ontology = m.Dataset.PPI
	}
	for _, p := range []*string{
		&m.Dataset.PPI,
		&m.Dataset.Expression,
		&m.Dataset.Localization,
		&m.Dataset.Orthology,
		&m.Dataset.Ontology,
		&m.Dataset.GoldStandard,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(m.Dir, *p)
		}
	}
	if m.Columns.OrthologyScore == "" {
		m.Columns.OrthologyScore = DefaultColumns().OrthologyScore
	}
}

// Validate checks that the manifest is usable.
func (m *Manifest) Validate() error {
	if m.Dataset.PPI == "" {
		return ErrNoPPI
	}
	if m.Columns.LocalizationLabel < 1 {
		return fmt.Errorf("columns.localization_label must be >= 1, got %d", m.Columns.LocalizationLabel)
	}
	return nil
}

// Name returns the dataset name, falling back to the manifest directory.
func (m *Manifest) Name() string {
	if m.Dataset.Name != "" {
		return m.Dataset.Name
	}
	return filepath.Base(m.Dir)
}

// Role is one named table of a manifest.
type Role struct {
	Name     string
	Path     string
	Required bool
}

// Roles lists every table the manifest names, in load order. Tables left
// empty are omitted; the ontology table is omitted when it is the ppi
// table.
func (m *Manifest) Roles() []Role {
	all := []Role{
		{Name: "ppi", Path: m.Dataset.PPI, Required: true},
		{Name: "expression", Path: m.Dataset.Expression},
		{Name: "localization", Path: m.Dataset.Localization},
		{Name: "orthology", Path: m.Dataset.Orthology},
		{Name: "ontology", Path: m.Dataset.Ontology},
		{Name: "gold_standard", Path: m.Dataset.GoldStandard},
	}
	out := make([]Role, 0, len(all))
	for _, r := range all {
		if r.Path == "" {
			continue
		}
		if r.Name == "ontology" && r.Path == m.Dataset.PPI {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Files returns the distinct table paths the manifest names.
func (m *Manifest) Files() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.Roles() {
		if !seen[r.Path] {
			seen[r.Path] = true
			out = append(out, r.Path)
		}
	}
	return out
}
