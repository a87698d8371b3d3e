package intelligence

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultRegionsDocument []byte

// Region names a place users ask for and the venue terms that cover it.
type Region struct {
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	Locations []string `yaml:"locations"`
}

// AcronymMapping maps the ways users name a course to the search term that
// finds it in the catalog.
type AcronymMapping struct {
	Query   string   `yaml:"query"`
	Phrases []string `yaml:"phrases"`
}

type RegionTable struct {
	Regions  []Region         `yaml:"regions"`
	Acronyms []AcronymMapping `yaml:"acronyms"`
}

// DefaultRegionTable returns the embedded table.
func DefaultRegionTable() RegionTable {
	t, err := ParseRegionTable(defaultRegionsDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded region table: %v", err))
	}
	return t
}

// LoadRegionTable reads a replacement table from a YAML file.
func LoadRegionTable(path string) (RegionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionTable{}, fmt.Errorf("read region table: %w", err)
	}
	return ParseRegionTable(data)
}

func ParseRegionTable(data []byte) (RegionTable, error) {
	var t RegionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return RegionTable{}, fmt.Errorf("parse region table: %w", err)
	}
	for _, r := range t.Regions {
		if strings.TrimSpace(r.Name) == "" || len(r.Locations) == 0 {
			return RegionTable{}, fmt.Errorf("parse region table: region %q needs a name and locations", r.Name)
		}
	}
	for _, a := range t.Acronyms {
		if strings.TrimSpace(a.Query) == "" {
			return RegionTable{}, fmt.Errorf("parse region table: acronym mapping without query")
		}
	}
	return t, nil
}

// Expand replaces every region name or alias in a comma-separated location
// with the region's venue terms, dropping duplicates. Unknown terms pass
// through unchanged.
func (t RegionTable) Expand(location string) string {
	seen := map[string]bool{}
	var out []string
	add := func(term string) {
		key := strings.ToLower(term)
		if !seen[key] {
			seen[key] = true
			out = append(out, term)
		}
	}
	for _, term := range strings.Split(location, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if r, ok := t.region(term); ok {
			for _, l := range r.Locations {
				add(l)
			}
			continue
		}
		add(term)
	}
	return strings.Join(out, ", ")
}

func (t RegionTable) region(term string) (Region, bool) {
	for _, r := range t.Regions {
		if strings.EqualFold(r.Name, term) {
			return r, true
		}
		for _, a := range r.Aliases {
			if strings.EqualFold(a, term) {
				return r, true
			}
		}
	}
	return Region{}, false
}

// formatRegions renders the expansion rules for the system prompt.
func (t RegionTable) formatRegions() string {
	var b strings.Builder
	for _, r := range t.Regions {
		fmt.Fprintf(&b, "- **%q** -> query location: %q\n", r.Name, strings.Join(r.Locations, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (t RegionTable) formatAcronyms() string {
	var b strings.Builder
	for _, a := range t.Acronyms {
		quoted := make([]string, len(a.Phrases))
		for i, p := range a.Phrases {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		fmt.Fprintf(&b, "- %s -> query: %q\n", strings.Join(quoted, ", "), a.Query)
	}
	return strings.TrimRight(b.String(), "\n")
}

// exampleLocation is the London expansion used in the prompt example.
func (t RegionTable) exampleLocation() string {
	if len(t.Regions) == 0 {
		return "London"
	}
	locs := t.Regions[0].Locations
	if len(locs) > 5 {
		locs = locs[:5]
	}
	return strings.Join(locs, ", ")
}
