package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Manager holds the closed stopword set and the prefix rules.
type Manager struct {
	stops    map[string]struct{}
	prefixes []string
}

// File is the YAML layout of a stoplist file.
type File struct {
	Terms    []string `yaml:"terms"`
	Prefixes []string `yaml:"prefixes"`
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string, prefixes []string) *Manager {
	m := &Manager{stops: make(map[string]struct{}, len(initialStops))}
	for _, s := range initialStops {
		m.Add(s)
	}
	for _, p := range prefixes {
		m.AddPrefix(p)
	}
	return m
}

// Default returns a manager loaded with the embedded review stoplist.
func Default() *Manager {
	m, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("stoplist: embedded default is invalid: %v", err))
	}
	return m
}

// Parse builds a manager from YAML data.
func Parse(data []byte) (*Manager, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return NewManager(f.Terms, f.Prefixes), nil
}

// Load reads a stoplist YAML file.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}
	return m, nil
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// HasStopPrefix reports whether token starts with one of the prefix roots.
func (m *Manager) HasStopPrefix(token string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}

// Matches reports whether token is a stopword or begins with a stop prefix.
func (m *Manager) Matches(token string) bool {
	return m.IsStop(token) || m.HasStopPrefix(token)
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	m.stops[token] = struct{}{}
}

// AddPrefix adds a prefix rule.
func (m *Manager) AddPrefix(prefix string) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return
	}
	for _, p := range m.prefixes {
		if p == prefix {
			return
		}
	}
	m.prefixes = append(m.prefixes, prefix)
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, token)
}

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Prefixes returns the prefix rules in insertion order.
func (m *Manager) Prefixes() []string {
	return append([]string(nil), m.prefixes...)
}
