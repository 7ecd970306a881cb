package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/layout"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/rank"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every tunable of a mining and layout run.
type Config struct {
	// Term mining
	MinTermWords         int     `yaml:"min_term_words" mapstructure:"min_term_words"`
	MaxTermWords         int     `yaml:"max_term_words" mapstructure:"max_term_words"`
	SubsumptionThreshold float64 `yaml:"subsumption_threshold" mapstructure:"subsumption_threshold"`
	MinPhraseOccurrences int     `yaml:"min_phrase_occurrences" mapstructure:"min_phrase_occurrences"`
	MinWordLength        int     `yaml:"min_word_length" mapstructure:"min_word_length"`
	MaxWordLength        int     `yaml:"max_word_length" mapstructure:"max_word_length"`
	MinPhraseLength      int     `yaml:"min_phrase_length" mapstructure:"min_phrase_length"`
	ProductName          string  `yaml:"product_name" mapstructure:"product_name"`
	StoplistPath         string  `yaml:"stoplist" mapstructure:"stoplist"`

	// Weighting and color
	MultiTermBoost  float64 `yaml:"multi_term_boost" mapstructure:"multi_term_boost"`
	MaxItemsInCloud int     `yaml:"max_items" mapstructure:"max_items"`
	PositiveHue     float64 `yaml:"positive_hue" mapstructure:"positive_hue"`
	NegativeHue     float64 `yaml:"negative_hue" mapstructure:"negative_hue"`
	MaxSaturation   float64 `yaml:"max_saturation" mapstructure:"max_saturation"`
	MinDisplayValue float64 `yaml:"min_display_value" mapstructure:"min_display_value"`
	LogBase         float64 `yaml:"log_base" mapstructure:"log_base"`

	// Layout
	Width                    float64       `yaml:"width" mapstructure:"width"`
	Height                   float64       `yaml:"height" mapstructure:"height"`
	DelayedModeItemThreshold int           `yaml:"delayed_mode_threshold" mapstructure:"delayed_mode_threshold"`
	TickInterval             time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	ItemPadding              float64       `yaml:"item_padding" mapstructure:"item_padding"`
	SpiralStepSize           float64       `yaml:"spiral_step" mapstructure:"spiral_step"`
	SpiralShape              string        `yaml:"spiral_shape" mapstructure:"spiral_shape"`
	RadiusCapFactor          float64       `yaml:"radius_cap_factor" mapstructure:"radius_cap_factor"`
	BaseFontSize             float64       `yaml:"base_font_size" mapstructure:"base_font_size"`
	FontStepPercent          float64       `yaml:"font_step_percent" mapstructure:"font_step_percent"`
	MaxFontSize              float64       `yaml:"max_font_size" mapstructure:"max_font_size"`
	Seed                     uint64        `yaml:"seed" mapstructure:"seed"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		MinTermWords:         1,
		MaxTermWords:         4,
		SubsumptionThreshold: 0.4,
		MinPhraseOccurrences: 2,
		MinWordLength:        2,
		MaxWordLength:        20,
		MinPhraseLength:      5,

		MultiTermBoost:  1.0,
		MaxItemsInCloud: 100,
		PositiveHue:     205,
		NegativeHue:     5,
		MaxSaturation:   0.5,
		MinDisplayValue: 0.55,
		LogBase:         2.0,

		Width:                    600,
		Height:                   350,
		DelayedModeItemThreshold: 50,
		TickInterval:             4 * time.Millisecond,
		ItemPadding:              3,
		SpiralShape:              string(layout.Elliptical),
		RadiusCapFactor:          2,
		BaseFontSize:             10,
		FontStepPercent:          35,
		MaxFontSize:              64,
	}
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	if key, v, ok := c.nonFinite(); ok {
		return invalid("%s must be finite, got %v", key, v)
	}
	switch {
	case c.MinTermWords < 1:
		return invalid("min_term_words must be at least 1, got %d", c.MinTermWords)
	case c.MaxTermWords < c.MinTermWords:
		return invalid("max_term_words (%d) is below min_term_words (%d)", c.MaxTermWords, c.MinTermWords)
	case c.SubsumptionThreshold <= 0:
		return invalid("subsumption_threshold must be positive, got %v", c.SubsumptionThreshold)
	case c.MinPhraseOccurrences < 1:
		return invalid("min_phrase_occurrences must be at least 1, got %d", c.MinPhraseOccurrences)
	case c.MinWordLength < 1:
		return invalid("min_word_length must be at least 1, got %d", c.MinWordLength)
	case c.MaxWordLength != 0 && c.MaxWordLength < c.MinWordLength:
		return invalid("max_word_length (%d) is below min_word_length (%d)", c.MaxWordLength, c.MinWordLength)
	case c.MinPhraseLength < 0:
		return invalid("min_phrase_length must not be negative, got %d", c.MinPhraseLength)
	case c.MultiTermBoost < 0:
		return invalid("multi_term_boost must not be negative, got %v", c.MultiTermBoost)
	case c.MaxItemsInCloud < 1:
		return invalid("max_items must be at least 1, got %d", c.MaxItemsInCloud)
	case !inRange(c.PositiveHue, 0, 360) || !inRange(c.NegativeHue, 0, 360):
		return invalid("hues must be within 0..360")
	case !inRange(c.MaxSaturation, 0, 1):
		return invalid("max_saturation must be within 0..1, got %v", c.MaxSaturation)
	case !inRange(c.MinDisplayValue, 0, 1):
		return invalid("min_display_value must be within 0..1, got %v", c.MinDisplayValue)
	case c.LogBase <= 1:
		return invalid("log_base must be greater than 1, got %v", c.LogBase)
	case c.Width <= 0 || c.Height <= 0:
		return invalid("canvas must be positive, got %vx%v", c.Width, c.Height)
	case c.DelayedModeItemThreshold < 0:
		return invalid("delayed_mode_threshold must not be negative, got %d", c.DelayedModeItemThreshold)
	case c.TickInterval < 0:
		return invalid("tick_interval must not be negative, got %v", c.TickInterval)
	case c.ItemPadding < 0:
		return invalid("item_padding must not be negative, got %v", c.ItemPadding)
	case c.SpiralStepSize < 0:
		return invalid("spiral_step must not be negative, got %v", c.SpiralStepSize)
	case c.RadiusCapFactor <= 0:
		return invalid("radius_cap_factor must be positive, got %v", c.RadiusCapFactor)
	case c.BaseFontSize <= 0:
		return invalid("base_font_size must be positive, got %v", c.BaseFontSize)
	case c.FontStepPercent < 0:
		return invalid("font_step_percent must not be negative, got %v", c.FontStepPercent)
	case c.MaxFontSize < 0:
		return invalid("max_font_size must not be negative, got %v", c.MaxFontSize)
	}
	if _, err := layout.ParseShape(c.SpiralShape); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// nonFinite returns the first float setting that is NaN or infinite.
func (c Config) nonFinite() (string, float64, bool) {
	fields := []struct {
		key string
		v   float64
	}{
		{"subsumption_threshold", c.SubsumptionThreshold},
		{"multi_term_boost", c.MultiTermBoost},
		{"positive_hue", c.PositiveHue},
		{"negative_hue", c.NegativeHue},
		{"max_saturation", c.MaxSaturation},
		{"min_display_value", c.MinDisplayValue},
		{"log_base", c.LogBase},
		{"width", c.Width},
		{"height", c.Height},
		{"item_padding", c.ItemPadding},
		{"spiral_step", c.SpiralStepSize},
		{"radius_cap_factor", c.RadiusCapFactor},
		{"base_font_size", c.BaseFontSize},
		{"font_step_percent", c.FontStepPercent},
		{"max_font_size", c.MaxFontSize},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return f.key, f.v, true
		}
	}
	return "", 0, false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Weights returns the weighting parameters.
func (c Config) Weights() rank.Weights {
	return rank.Weights{
		MultiTermBoost: c.MultiTermBoost,
		MaxItems:       c.MaxItemsInCloud,
		PositiveHue:    c.PositiveHue,
		NegativeHue:    c.NegativeHue,
		MaxSaturation:  c.MaxSaturation,
		LogBase:        c.LogBase,
	}
}

// LayoutOptions returns the layout parameters. Measurer, logger and hooks
// are left for the caller.
func (c Config) LayoutOptions() layout.Options {
	shape, _ := layout.ParseShape(c.SpiralShape)
	return layout.Options{
		Width:                c.Width,
		Height:               c.Height,
		Padding:              c.ItemPadding,
		Step:                 c.SpiralStepSize,
		Shape:                shape,
		RadiusCapFactor:      c.RadiusCapFactor,
		BaseFontSize:         c.BaseFontSize,
		FontStepPercent:      c.FontStepPercent,
		MaxFontSize:          c.MaxFontSize,
		MinDisplayValue:      c.MinDisplayValue,
		DelayedModeThreshold: c.DelayedModeItemThreshold,
		TickInterval:         c.TickInterval,
		Seed:                 c.Seed,
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Keys returns the YAML key of every field, in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}
