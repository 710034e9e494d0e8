package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/phasespace/internal/lattice"
	"github.com/san-kum/phasespace/internal/separatrix"
)

const (
	DefaultTune      = 0.3433
	DefaultSextupole = 40.0
	DefaultBeta      = 10.0
	DefaultAlpha     = 0.5
	DefaultAperture  = 0.1
	DefaultDataDir   = "./data"
)

type Config struct {
	Lattice LatticeConfig     `yaml:"lattice" json:"lattice"`
	Search  separatrix.Config `yaml:"search" json:"search"`
	Output  OutputConfig      `yaml:"output" json:"output"`
}

// LatticeConfig is the working point of the sextupole ring.
type LatticeConfig struct {
	Tune      float64 `yaml:"tune" json:"tune"`
	Sextupole float64 `yaml:"sextupole" json:"sextupole"`
	Beta      float64 `yaml:"beta" json:"beta"`
	Alpha     float64 `yaml:"alpha" json:"alpha"`
	Aperture  float64 `yaml:"aperture" json:"aperture"`
}

type OutputConfig struct {
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	Plot        string `yaml:"plot" json:"plot"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
	Save        bool   `yaml:"save" json:"save"`
}

func DefaultLattice() LatticeConfig {
	return LatticeConfig{
		Tune:      DefaultTune,
		Sextupole: DefaultSextupole,
		Beta:      DefaultBeta,
		Alpha:     DefaultAlpha,
		Aperture:  DefaultAperture,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Lattice: DefaultLattice(),
		Search:  separatrix.DefaultConfig(),
		Output: OutputConfig{
			DataDir: DefaultDataDir,
			Save:    true,
		},
	}
}

// Load reads a YAML file on top of the defaults, so a partial document only
// overrides the keys it names.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay applies the YAML file at path onto cfg and validates the result.
func Overlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Lattice.Build().Validate(); err != nil {
		return err
	}
	return c.Search.Validate()
}

// Build returns the tracking engine for this working point.
func (l LatticeConfig) Build() *lattice.Resonance {
	return &lattice.Resonance{
		Tune:      l.Tune,
		Sextupole: l.Sextupole,
		Beta:      l.Beta,
		Alpha:     l.Alpha,
		Aperture:  l.Aperture,
	}
}
