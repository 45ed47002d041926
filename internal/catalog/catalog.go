// Package catalog defines the static registry of datasets served by the
// application: which file backs each dataset id, how that file is parsed,
// and where on disk it may live.
//
// The catalog is read-only configuration. It is loaded once at startup
// from a YAML file and never mutated afterwards; the cache layer consumes
// it to resolve dataset ids to physical files and format options.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormatKind identifies how a dataset's backing file is parsed.
// The set of kinds is closed; dispatch on it is a switch, not an interface.
type FormatKind string

const (
	KindSpreadsheet FormatKind = "spreadsheet"
	KindDelimited   FormatKind = "delimited"
)

// BadRowPolicy controls what happens when a delimited file contains a
// row whose column count does not match the header.
type BadRowPolicy string

const (
	// BadRowFail aborts the whole read on the first malformed row.
	BadRowFail BadRowPolicy = "fail"
	// BadRowSkip silently drops malformed rows.
	BadRowSkip BadRowPolicy = "skip"
	// BadRowWarn drops malformed rows and logs a diagnostic for each.
	BadRowWarn BadRowPolicy = "warn"
)

// FormatSpec holds the per-dataset parsing options.
type FormatSpec struct {
	Kind FormatKind `yaml:"kind"`

	// Delimiter is the field separator for delimited files (default ";").
	Delimiter string `yaml:"delimiter,omitempty"`

	// Encoding is the IANA charset name of a delimited file
	// (default "utf-8"). Spreadsheets are always read as stored.
	Encoding string `yaml:"encoding,omitempty"`

	// BadRows is the malformed-row policy for delimited files (default warn).
	BadRows BadRowPolicy `yaml:"bad_rows,omitempty"`

	// RequiredSheet, when set, names the spreadsheet sheet that must exist.
	// Reading fails if the sheet is absent; when unset the first sheet is read.
	RequiredSheet string `yaml:"required_sheet,omitempty"`
}

// Dataset maps a logical dataset id to a physical filename and its format.
type Dataset struct {
	ID       string     `yaml:"id"`
	Filename string     `yaml:"filename"`
	Format   FormatSpec `yaml:"format"`
}

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Datasets []Dataset `yaml:"datasets"`
}

// LoadFile reads a catalog YAML file, validates every entry, and returns
// a Registry holding the datasets.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(data)
}

// Load parses catalog entries from YAML bytes into a new Registry.
// Any invalid entry, including a duplicated id, fails the whole load.
func Load(data []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cf.Datasets) == 0 {
		return nil, fmt.Errorf("catalog defines no datasets")
	}

	seen := make(map[string]bool, len(cf.Datasets))
	for i := range cf.Datasets {
		ds := &cf.Datasets[i]
		applyDefaults(ds)
		if err := validate(ds); err != nil {
			return nil, fmt.Errorf("catalog dataset %q: %w", ds.ID, err)
		}
		if seen[ds.ID] {
			return nil, fmt.Errorf("catalog dataset %q: duplicate id", ds.ID)
		}
		seen[ds.ID] = true
	}

	reg := NewRegistry()
	for _, ds := range cf.Datasets {
		reg.Register(ds)
	}
	return reg, nil
}

// applyDefaults fills the optional FormatSpec fields.
func applyDefaults(ds *Dataset) {
	if ds.Format.Kind == KindDelimited {
		if ds.Format.Delimiter == "" {
			ds.Format.Delimiter = ";"
		}
		if ds.Format.Encoding == "" {
			ds.Format.Encoding = "utf-8"
		}
		if ds.Format.BadRows == "" {
			ds.Format.BadRows = BadRowWarn
		}
	}
}

// validate checks a single catalog entry.
func validate(ds *Dataset) error {
	var errs []string

	if strings.TrimSpace(ds.ID) == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(ds.Filename) == "" {
		errs = append(errs, "filename is required")
	}

	switch ds.Format.Kind {
	case KindSpreadsheet:
		if ds.Format.Delimiter != "" {
			errs = append(errs, "delimiter is only valid for delimited datasets")
		}
	case KindDelimited:
		if len(ds.Format.Delimiter) != 1 && ds.Format.Delimiter != "\t" {
			errs = append(errs, fmt.Sprintf("delimiter %q must be a single character", ds.Format.Delimiter))
		}
		if ds.Format.RequiredSheet != "" {
			errs = append(errs, "required_sheet is only valid for spreadsheet datasets")
		}
		switch ds.Format.BadRows {
		case BadRowFail, BadRowSkip, BadRowWarn:
		default:
			errs = append(errs, fmt.Sprintf("bad_rows %q must be one of: fail, skip, warn", ds.Format.BadRows))
		}
	default:
		errs = append(errs, fmt.Sprintf("kind %q must be one of: spreadsheet, delimited", ds.Format.Kind))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
