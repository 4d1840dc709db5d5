// Package wbe ties the document pipeline (url, fetch, html, css,
// style, layout, paint) together behind an Engine: a single process
// context carrying configuration, the response cache, and the font
// cache, replacing the package-level globals a from-scratch port would
// otherwise reach for.
package wbe

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default window size and step constants.
const (
	DefaultWidth      = 800
	DefaultHeight     = 600
	DefaultHStep      = 13
	DefaultVStep      = 18
	DefaultScrollStep = 100
)

// Config is the process configuration: sensible defaults, loadable
// from a YAML file and overridable by CLI flags (cmd/wbe).
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	HStep  int `yaml:"hstep"`
	VStep  int `yaml:"vstep"`

	ScrollStep int `yaml:"scroll_step"`

	CacheCapacity         int    `yaml:"cache_capacity"`
	DefaultStylesheetPath string `yaml:"default_stylesheet_path"`
	UserAgent             string `yaml:"user_agent"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	LogLevel  string `yaml:"log_level"`  // debug|info|warn|error
	LogFormat string `yaml:"log_format"` // text|json

	DevtoolsAddr string `yaml:"devtools_addr"`
}

// DefaultConfig returns the default window size/step constants plus
// sensible ambient defaults.
func DefaultConfig() Config {
	return Config{
		Width:                 DefaultWidth,
		Height:                DefaultHeight,
		HStep:                 DefaultHStep,
		VStep:                 DefaultVStep,
		ScrollStep:            DefaultScrollStep,
		CacheCapacity:         0,
		DefaultStylesheetPath: "browser.css",
		UserAgent:             "browser",
		RequestTimeout:        10 * time.Second,
		LogLevel:              "info",
		LogFormat:             "text",
		DevtoolsAddr:          "127.0.0.1:8080",
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing
// file is not an error: the defaults stand alone, since the file is
// optional.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
