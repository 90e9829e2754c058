package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// Era file validation errors.
var (
	ErrNoEras        = errors.New("at least one era is required")
	ErrEraMissing    = errors.New("era name, start and end are required")
	ErrEraEmptyRange = errors.New("era end must be after start")
	ErrEraOverlap    = errors.New("eras must be ordered and must not overlap")
)

type erasFile struct {
	Eras []eraEntry `yaml:"eras"`
}

type eraEntry struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadEras reads era boundaries from a YAML file of the form
//
//	eras:
//	  - name: "2015-2018"
//	    start: "2015-01-01"
//	    end: "2019-01-01"
//
// Start is inclusive and end exclusive.
func LoadEras(path string) ([]domain.Era, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read eras file: %w", err)
	}
	return ParseEras(data)
}

// ParseEras decodes and validates an eras YAML document.
func ParseEras(data []byte) ([]domain.Era, error) {
	var f erasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse eras yaml: %w", err)
	}
	if len(f.Eras) == 0 {
		return nil, ErrNoEras
	}

	eras := make([]domain.Era, 0, len(f.Eras))
	for i, e := range f.Eras {
		if e.Name == "" || e.Start == "" || e.End == "" {
			return nil, fmt.Errorf("era %d: %w", i, ErrEraMissing)
		}
		start, err := time.Parse(time.DateOnly, e.Start)
		if err != nil {
			return nil, fmt.Errorf("era %q start: %w", e.Name, err)
		}
		end, err := time.Parse(time.DateOnly, e.End)
		if err != nil {
			return nil, fmt.Errorf("era %q end: %w", e.Name, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("era %q: %w", e.Name, ErrEraEmptyRange)
		}
		if n := len(eras); n > 0 && start.Before(eras[n-1].End) {
			return nil, fmt.Errorf("era %q: %w", e.Name, ErrEraOverlap)
		}
		eras = append(eras, domain.Era{Name: e.Name, Start: start, End: end})
	}
	return eras, nil
}
