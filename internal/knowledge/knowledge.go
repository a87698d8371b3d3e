// Package knowledge answers getCourseDetails: syllabus, exam and
// certification notes keyed by course acronym.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed knowledge.toml
var defaultDocument []byte

type document struct {
	NotAvailable string  `toml:"not_available"`
	Entries      []entry `toml:"entry"`
}

type entry struct {
	Key  string `toml:"key"`
	Text string `toml:"text"`
}

// Base is an immutable acronym → text mapping. Lookups never fail: anything
// unresolvable yields the not-available text.
type Base struct {
	entries      map[string]string
	keysByLength []string
	notAvailable string
}

// Default returns the embedded knowledge base.
func Default() *Base {
	b, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded knowledge base: %v", err))
	}
	return b
}

// LoadFile reads a knowledge base from a TOML file on disk.
func LoadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Base, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if strings.TrimSpace(doc.NotAvailable) == "" {
		return nil, fmt.Errorf("parse knowledge base: not_available text is required")
	}
	return New(doc.Entries, doc.NotAvailable)
}

func New(entries []entry, notAvailable string) (*Base, error) {
	b := &Base{entries: make(map[string]string, len(entries)), notAvailable: notAvailable}
	for _, e := range entries {
		key := normalizeKey(e.Key)
		if key == "" {
			return nil, fmt.Errorf("knowledge entry with empty key")
		}
		if _, dup := b.entries[key]; dup {
			return nil, fmt.Errorf("duplicate knowledge entry %q", key)
		}
		b.entries[key] = strings.TrimSpace(e.Text)
		b.keysByLength = append(b.keysByLength, key)
	}
	sort.Slice(b.keysByLength, func(i, j int) bool {
		a, c := b.keysByLength[i], b.keysByLength[j]
		if len(a) != len(c) {
			return len(a) > len(c)
		}
		return a < c
	})
	return b, nil
}

// Lookup resolves a course acronym or name in order: exact key, the longest
// key contained in the input, then the longest key that contains the input.
func (b *Base) Lookup(courseType string) string {
	text, _ := b.Resolve(courseType)
	return text
}

// Resolve is Lookup that also reports which key matched ("" when none did).
func (b *Base) Resolve(courseType string) (string, string) {
	q := normalizeKey(courseType)
	if q == "" {
		return b.notAvailable, ""
	}
	if text, ok := b.entries[q]; ok {
		return text, q
	}
	for _, k := range b.keysByLength {
		if strings.Contains(q, k) {
			return b.entries[k], k
		}
	}
	for _, k := range b.keysByLength {
		if strings.Contains(k, q) {
			return b.entries[k], k
		}
	}
	return b.notAvailable, ""
}

// NotAvailable is the text returned for unknown courses.
func (b *Base) NotAvailable() string { return b.notAvailable }

// Keys lists the known keys, longest first.
func (b *Base) Keys() []string {
	return append([]string(nil), b.keysByLength...)
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}
