// Package config reads matching settings from YAML files
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/tolerance"
)

// Config holds the settings of a matching run
type Config struct {
	Search   tolerance.Settings `yaml:"thresholds"`
	Matching match.Options      `yaml:"matching"`
}

// Default returns the default settings
func Default() Config {
	return Config{
		Search:   tolerance.New().Settings(),
		Matching: match.DefaultOptions(),
	}
}

// Load reads the YAML file at path over the defaults. Unknown keys are an
// error.
func Load(path string) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	if err := c.Decode(f); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Decode reads YAML from r into c. Settings absent from r keep their value.
func (c *Config) Decode(r io.Reader) error {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Write writes c as YAML
func (c *Config) Write(w io.Writer) error {
	e := yaml.NewEncoder(w)
	e.SetIndent(2)
	if err := e.Encode(c); err != nil {
		return err
	}
	return e.Close()
}

// Thresholds returns the search thresholds described by c. An unknown mass
// unit is passed on as an invalid unit, for the thresholds to report.
func (c *Config) Thresholds() *tolerance.Thresholds {
	s := c.Search
	th := tolerance.New()
	th.SetAutoDefineSLiC(s.AutoDefineSLiC)
	unit, _ := tolerance.ParseMassUnit(s.MassUnit)
	th.SetMassUnit(unit)
	th.SetMassTolerance(s.MassTolerance)
	th.SetNETTolerance(s.NETTolerance)
	if s.AutoDefineSLiC {
		th.SetMaxSearchDistanceMultiplier(s.MaxSearchDistanceMultiplier)
	} else {
		th.SetSLiC(tolerance.SLiCOptions{
			MassPPMStDev:                s.MassPPMStDev,
			NETStDev:                    s.NETStDev,
			MaxSearchDistanceMultiplier: s.MaxSearchDistanceMultiplier,
		})
	}
	return th
}

// EngineOptions returns the matching options
func (c *Config) EngineOptions() match.Options {
	return c.Matching
}
