package config

import (
	"errors"
	"fmt"
	"os"

	"inherit/internal/report"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Report struct {
		Policy  string            `yaml:"policy"`  // fail-fast | warn | silent
		Scopes  map[string]string `yaml:"scopes"`  // scope -> policy
		Summary string            `yaml:"summary"` // debug | info | warn | error | none
	} `yaml:"report"`
	Log struct {
		Format string `yaml:"format"` // console | json
		Level  string `yaml:"level"`
	} `yaml:"log"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.Report.Policy == "" {
		c.Report.Policy = string(report.DefaultPolicy)
	}
	if c.Report.Summary == "" {
		c.Report.Summary = string(report.VerbosityInfo)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "inherit.db"
	}
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config; a missing file means defaults
	var cfg Config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if policy := os.Getenv("INHERIT_REPORT_POLICY"); policy != "" {
		cfg.Report.Policy = policy
	}
	if db := os.Getenv("INHERIT_DB"); db != "" {
		cfg.Storage.Path = db
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// ReportSettings validates the report section and converts it for the registry.
func (c *Config) ReportSettings() (report.Settings, error) {
	var s report.Settings
	p, err := report.ParsePolicy(c.Report.Policy)
	if err != nil {
		return s, err
	}
	s.Default = p
	v, err := report.ParseVerbosity(c.Report.Summary)
	if err != nil {
		return s, err
	}
	s.Summary = v
	for scope, raw := range c.Report.Scopes {
		p, err := report.ParsePolicy(raw)
		if err != nil {
			return s, fmt.Errorf("report.scopes.%s: %w", scope, err)
		}
		s = s.WithScope(scope, p)
	}
	return s, nil
}
