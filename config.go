package deckfs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional settings file in the watched root.
const ConfigFileName = "config.yaml"

// DefaultBrightness is the panel brightness applied without a config file.
const DefaultBrightness = 50

// validate is the shared validator instance.
var validate = validator.New()

// Config holds the runtime-tunable engine settings. The file is optional;
// a missing file means defaults, and an invalid file leaves the current
// settings in effect.
type Config struct {
	// Brightness is the device panel brightness in percent.
	Brightness int `yaml:"brightness" validate:"min=0,max=100"`

	// QuietWindowMS is the debounce quiet window in milliseconds.
	QuietWindowMS int `yaml:"quiet_window_ms" validate:"min=10"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Brightness:    DefaultBrightness,
		QuietWindowMS: int(DefaultQuietWindow / time.Millisecond),
	}
}

// QuietWindow returns the quiet window as a duration.
func (c Config) QuietWindow() time.Duration {
	return time.Duration(c.QuietWindowMS) * time.Millisecond
}

// LoadConfig reads and validates config.yaml under root. A missing file
// yields the defaults; unknown keys are ignored so users can keep notes
// in the file.
func LoadConfig(root string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", ConfigFileName, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal %s: %w", ConfigFileName, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}
