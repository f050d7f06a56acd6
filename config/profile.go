package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rent-estimator/location"
	"rent-estimator/models"
)

// Profile is the matching and clamping tuning for one market, read from YAML.
type Profile struct {
	Name string `yaml:"name"`
	// MatchLevels is the fallback chain, strictest first.
	MatchLevels        []models.MatchParameters `yaml:"match_levels"`
	Clamp              models.ClampConfig       `yaml:"clamp"`
	Similarity         string                   `yaml:"similarity"`
	MaxRentPricePerSqm float64                  `yaml:"max_rent_price_per_sqm"`
	Neighborhoods      *location.Table          `yaml:"neighborhoods"`
}

// DefaultProfile returns the built-in Lisbon profile.
func DefaultProfile() *Profile {
	table := location.DefaultTable()
	return &Profile{
		Name:               "lisbon",
		MatchLevels:        models.DefaultMatchLevels(),
		Clamp:              models.DefaultClampConfig(),
		Similarity:         location.AlgorithmLevenshtein,
		MaxRentPricePerSqm: 45,
		Neighborhoods:      &table,
	}
}

// LoadProfile reads a YAML profile over the defaults. A missing file yields
// the defaults; fields absent from the file keep their default values.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parse profile %q: %w", path, err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", path, err)
	}
	return p, nil
}

// Validate checks every section of the profile.
func (p *Profile) Validate() error {
	if len(p.MatchLevels) == 0 {
		return fmt.Errorf("%w: match_levels must not be empty", models.ErrInvalidParameters)
	}
	for i, lvl := range p.MatchLevels {
		if err := lvl.Validate(); err != nil {
			return fmt.Errorf("match_levels[%d]: %w", i, err)
		}
	}
	if err := p.Clamp.Validate(); err != nil {
		return fmt.Errorf("clamp: %w", err)
	}
	if _, err := location.NewStringSimilarity(p.Similarity); err != nil {
		return err
	}
	if p.Neighborhoods == nil {
		return fmt.Errorf("%w: neighborhoods table missing", models.ErrInvalidParameters)
	}
	return p.Neighborhoods.Validate()
}
