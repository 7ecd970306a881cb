package config

import (
	"fmt"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/stoplist"
)

// Loader loads the configuration file and the stoplist it names
type Loader struct {
	ConfigPath   string
	StoplistPath string // overrides the path from the config file
}

// Components holds all loaded configuration components
type Components struct {
	Config   Config
	Stoplist *stoplist.Manager
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{Config: Default()}

	if l.ConfigPath != "" {
		cfg, err := Load(l.ConfigPath)
		if err != nil {
			return nil, err
		}
		comp.Config = cfg
	}
	if l.StoplistPath != "" {
		comp.Config.StoplistPath = l.StoplistPath
	}

	stops, err := LoadStoplist(comp.Config.StoplistPath)
	if err != nil {
		return nil, err
	}
	comp.Stoplist = stops

	return comp, nil
}

// LoadStoplist loads a stoplist file, or the embedded default when path
// is empty.
func LoadStoplist(path string) (*stoplist.Manager, error) {
	if path == "" {
		return stoplist.Default(), nil
	}
	stops, err := stoplist.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load stoplist: %w", err)
	}
	return stops, nil
}
