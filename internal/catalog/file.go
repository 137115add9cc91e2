// Package catalog loads scholarship catalogs and student profiles from JSON
// files or a remote catalog API, and keeps the exclusion lists next to them.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/scholarpath/internal/scholarship"
)

// LoadCatalogFile reads, schema-checks and validates a catalog file.
func LoadCatalogFile(path string) (*scholarship.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*scholarship.Catalog, error) {
	if err := ValidateCatalogJSON(data); err != nil {
		return nil, err
	}
	var c scholarship.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadProfileFile reads, schema-checks and validates a profile file.
func LoadProfileFile(path string) (*scholarship.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return ParseProfile(data)
}

func ParseProfile(data []byte) (*scholarship.Profile, error) {
	if err := ValidateProfileJSON(data); err != nil {
		return nil, err
	}
	var p scholarship.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
