// Package taxonomy holds the category suggestions offered when recording a
// transaction and the colour each one is drawn with. Categories on stored
// transactions are open strings; nothing here validates them.
package taxonomy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FallbackColor is used for categories outside the known set.
const FallbackColor = "#6B7280"

// Category is one suggestion with its display colour.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var defaults = []Category{
	{"Food", "#F59E0B"},
	{"Transport", "#3B82F6"},
	{"Entertainment", "#8B5CF6"},
	{"Shopping", "#EC4899"},
	{"Bills", "#EF4444"},
	{"Healthcare", "#10B981"},
	{"Education", "#6366F1"},
	{"Travel", "#06B6D4"},
	{"Income", "#22C55E"},
	{"Other", FallbackColor},
}

// Taxonomy is an immutable, ordered set of categories.
type Taxonomy struct {
	list  []Category
	index map[string]int
}

// Default returns the built-in category set.
func Default() *Taxonomy {
	return New(defaults)
}

// New builds a taxonomy keeping the first occurrence of each name. Blank
// names are dropped and a missing colour falls back to the built-in one.
func New(cats []Category) *Taxonomy {
	t := &Taxonomy{index: make(map[string]int, len(cats))}
	for _, c := range cats {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if _, ok := t.index[c.Name]; ok {
			continue
		}
		if c.Color == "" {
			c.Color = builtinColor(c.Name)
		}
		t.index[c.Name] = len(t.list)
		t.list = append(t.list, c)
	}
	return t
}

// Load reads a seed file with one category per line, optionally followed by
// a colour: "Groceries #22C55E". Blank lines and # comments are skipped. An
// empty path or a file without categories yields the default set.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories file: %w", err)
	}
	defer f.Close()

	var cats []Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c := Category{Name: line}
		if i := strings.LastIndex(line, " #"); i > 0 && isHexColor(line[i+1:]) {
			c = Category{Name: strings.TrimSpace(line[:i]), Color: strings.ToUpper(line[i+1:])}
		}
		cats = append(cats, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	if len(cats) == 0 {
		return Default(), nil
	}
	return New(cats), nil
}

// Categories returns a copy of the ordered set.
func (t *Taxonomy) Categories() []Category {
	return append([]Category(nil), t.list...)
}

// Names returns the category names in order.
func (t *Taxonomy) Names() []string {
	out := make([]string, len(t.list))
	for i, c := range t.list {
		out[i] = c.Name
	}
	return out
}

// Contains reports whether name is a known category. Matching is exact.
func (t *Taxonomy) Contains(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Color returns the colour for name, FallbackColor for unknown names.
func (t *Taxonomy) Color(name string) string {
	if i, ok := t.index[name]; ok {
		return t.list[i].Color
	}
	return FallbackColor
}

func builtinColor(name string) string {
	for _, c := range defaults {
		if c.Name == name {
			return c.Color
		}
	}
	return FallbackColor
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
