package parser

import (
	_ "embed"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/credit-extract/internal/model"
)

//go:embed formats.yaml
var defaultFormats []byte

// Format fingerprints one report layout.
type Format struct {
	Name string `yaml:"name"`
	// Bureau is set for single-bureau layouts; unattributed scores in such a
	// report belong to it.
	Bureau     string   `yaml:"bureau"`
	MinMatches int      `yaml:"min_matches"`
	Markers    []string `yaml:"markers"`
	Excludes   []string `yaml:"excludes"`
}

// Catalog is an ordered list of formats.
type Catalog struct {
	Formats []Format `yaml:"formats"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	c, err := parseCatalog(defaultFormats)
	if err != nil {
		panic(eris.Wrap(err, "parser: embedded formats"))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file. An empty path returns the
// embedded default.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, eris.Wrapf(err, "parser: read formats %s", path)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, eris.Wrap(err, "parser: parse formats")
	}
	for i, f := range c.Formats {
		if f.Name == "" {
			return Catalog{}, eris.Errorf("parser: format %d has no name", i)
		}
		if len(f.Markers) == 0 {
			return Catalog{}, eris.Errorf("parser: format %q has no markers", f.Name)
		}
		if f.MinMatches <= 0 {
			c.Formats[i].MinMatches = 1
		}
		c.Formats[i].Bureau = canonicalBureau(f.Bureau)
	}
	return c, nil
}

// Detect returns the best matching format, or a zero Format named
// model.FormatUnknown.
func (c Catalog) Detect(text string) Format {
	lower := strings.ToLower(text)
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, lower)

	contains := func(marker string) bool {
		m := strings.ToLower(marker)
		return strings.Contains(lower, m) || strings.Contains(compact, strings.ReplaceAll(m, " ", ""))
	}

	best := Format{Name: model.FormatUnknown}
	bestCount := 0
	for _, f := range c.Formats {
		excluded := false
		for _, x := range f.Excludes {
			if contains(x) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		n := 0
		for _, m := range f.Markers {
			if contains(m) {
				n++
			}
		}
		if n >= f.MinMatches && n > bestCount {
			best, bestCount = f, n
		}
	}
	return best
}

// canonicalBureau maps bureau spellings to model bureau keys; anything else
// is returned empty.
func canonicalBureau(s string) string {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "") {
	case "equifax":
		return model.BureauEquifax
	case "experian":
		return model.BureauExperian
	case "transunion":
		return model.BureauTransUnion
	}
	return ""
}
