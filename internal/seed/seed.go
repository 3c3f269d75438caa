// Package seed defines the YAML dataset format the CLI and tests use to
// populate a store backend.
package seed

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/localindex/dedupe/pkg/directory"
)

// File is a parsed seed dataset. Every section is optional.
type File struct {
	Records []*directory.Record `yaml:"records"`
	Reviews []*directory.Review `yaml:"reviews"`
	Claims  []Claim             `yaml:"claims"`
	Terms   []Term              `yaml:"terms"`
}

// Claim marks a record as owned by a user.
type Claim struct {
	RecordID int64 `yaml:"record_id"`
	OwnerID  int64 `yaml:"owner_id"`
}

// Term defines a taxonomy term and the records assigned to it.
type Term struct {
	Taxonomy directory.Taxonomy `yaml:"taxonomy"`
	ID       int64              `yaml:"id"`
	Name     string             `yaml:"name"`
	Records  []int64            `yaml:"records"`
}

// Load reads and parses a seed file, applying defaults: records default
// to published, reviews to approved.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	for _, record := range file.Records {
		if record.Status == "" {
			record.Status = directory.StatusPublished
		}
	}
	for _, review := range file.Reviews {
		if review.Status == "" {
			review.Status = directory.ReviewApproved
		}
	}
	return &file, nil
}
