package annotation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/motheatensoul/tei-scribe/internal/history"
)

type Config struct {
	Project struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Author      string `yaml:"author"`
	} `yaml:"project"`
	History struct {
		Max int `yaml:"max"`
	} `yaml:"history"`
	Storage ConfigStorage `yaml:"storage"`
	Server  struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	I18n struct {
		Language string `yaml:"language"`
	} `yaml:"i18n"`
}

type ConfigStorage struct {
	// Directory holding annotations.json (and legacy confirmations.json)
	Directory string `yaml:"directory"`
	// SQLite database mirroring saved annotation sets, optional
	Database string `yaml:"database"`
	// Document id used in the database
	Document string `yaml:"document"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var ret Config
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	ret.applyDefaults(filepath.Dir(filename))
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}

// applyDefaults fills absent settings; relative paths are resolved against base
func (c *Config) applyDefaults(base string) {
	if c.History.Max == 0 {
		c.History.Max = history.DefaultMaxHistory
	}
	if c.Storage.Directory == "" {
		c.Storage.Directory = "."
	}
	if !filepath.IsAbs(c.Storage.Directory) {
		c.Storage.Directory = filepath.Join(base, c.Storage.Directory)
	}
	if c.Storage.Database != "" && !filepath.IsAbs(c.Storage.Database) {
		c.Storage.Database = filepath.Join(base, c.Storage.Database)
	}
	if c.Storage.Document == "" {
		c.Storage.Document = c.Project.Name
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.I18n.Language == "" {
		c.I18n.Language = "en"
	}
}

func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if c.History.Max < 0 {
		return fmt.Errorf("history max must not be negative, got %d", c.History.Max)
	}
	return nil
}
