// Package indicator loads the indicator catalog and evaluates indicator
// formulas against a city's raw signals.
package indicator

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/couchcryptid/urban-climate-risk/internal/cohort"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed catalog.cue
var defaultCatalog []byte

// Catalog is the ordered, validated set of indicator definitions of a run.
type Catalog struct {
	Indicators []Definition
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse("catalog.cue", defaultCatalog)
}

// Load reads a catalog file. An empty path selects the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog: %w", domain.ErrConfiguration, err)
	}
	return Parse(filepath.Base(path), src)
}

// Parse compiles src against the catalog schema and binds it. Any schema
// violation, unknown signal reference or empty pillar is a configuration
// error.
func Parse(name string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(name))
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("%w: compile %s: %s", domain.ErrConfiguration, name, details(err))
	}

	v := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(data)
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%w: validate %s: %s", domain.ErrConfiguration, name, details(err))
	}

	var raw struct {
		Indicators []Definition `json:"indicators"`
	}
	if err := v.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %s", domain.ErrConfiguration, name, details(err))
	}

	c := &Catalog{Indicators: raw.Indicators}
	if err := c.bind(); err != nil {
		return nil, err
	}
	return c, nil
}

func details(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}

// bind resolves signal references and checks that names are unique and that
// every pillar has at least one member.
func (c *Catalog) bind() error {
	seen := make(map[string]bool, len(c.Indicators))
	for i := range c.Indicators {
		def := &c.Indicators[i]
		if seen[def.Name] {
			return fmt.Errorf("%w: duplicate indicator %q", domain.ErrConfiguration, def.Name)
		}
		seen[def.Name] = true
		for j := range def.Terms {
			if err := def.Terms[j].bind(); err != nil {
				return fmt.Errorf("%w: indicator %s: %w", domain.ErrConfiguration, def.Name, err)
			}
		}
	}
	for _, p := range domain.Pillars {
		if len(c.Members(p)) == 0 {
			return fmt.Errorf("%w: pillar %s has no indicators", domain.ErrConfiguration, p)
		}
	}
	return nil
}

// Members returns the names of the indicators of a pillar, in catalog order.
func (c *Catalog) Members(p domain.Pillar) []string {
	var names []string
	for _, def := range c.Indicators {
		if def.Pillar == p {
			names = append(names, def.Name)
		}
	}
	return names
}

// Lookup returns the definition with the given name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	for _, def := range c.Indicators {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Signals returns every distinct signal the catalog reads, sorted.
func (c *Catalog) Signals() []domain.Signal {
	set := make(map[domain.Signal]struct{})
	for _, def := range c.Indicators {
		for _, sig := range def.Signals() {
			set[sig] = struct{}{}
		}
	}
	out := make([]domain.Signal, 0, len(set))
	for sig := range set {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// NormalizationOptions combines a definition's scaling settings with the
// run-wide bounds.
func (d Definition) NormalizationOptions(bounds domain.NormalizationOptions) cohort.Options {
	return cohort.Options{
		Mode:                 d.Mode,
		Transform:            d.Transform,
		Direction:            d.Direction,
		NormalizationOptions: bounds,
	}
}

// ParseSignal parses a "family/name" reference.
func ParseSignal(ref string) (domain.Signal, error) {
	family, name, ok := strings.Cut(ref, "/")
	if !ok || name == "" {
		return domain.Signal{}, fmt.Errorf("malformed signal %q", ref)
	}
	f := domain.Family(family)
	if !f.Valid() {
		return domain.Signal{}, fmt.Errorf("unknown signal family %q", family)
	}
	return domain.Signal{Family: f, Name: name}, nil
}
