// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrRegistryUnavailable indicates the compromised-package list could not
// be loaded at all: the file is missing, unreadable, or contains no valid
// rows. Callers treat this as a configuration error.
var ErrRegistryUnavailable = errors.New("compromised-package registry unavailable")

// CompromisedRecord is one curated (package, version) pair known to be
// compromised, together with its advisory metadata.
type CompromisedRecord struct {
	Name     string
	Version  string
	Advisory string
}

// LoadStats captures what happened while parsing the registry source.
type LoadStats struct {
	RowsTotal     int
	RowsLoaded    int
	RowsMalformed int
	RowsDuplicate int
}

// Registry holds the compromised-package list indexed by package name.
// It is immutable once loaded and safe for concurrent readers.
type Registry struct {
	records map[string]map[string]CompromisedRecord
}

// NewRegistry builds a registry from already-validated records. Duplicate
// (name, version) pairs keep the first record.
func NewRegistry(records ...CompromisedRecord) *Registry {
	reg := &Registry{records: map[string]map[string]CompromisedRecord{}}
	for _, rec := range records {
		if rec.Name == "" || rec.Version == "" {
			continue
		}
		versions, ok := reg.records[rec.Name]
		if !ok {
			versions = map[string]CompromisedRecord{}
			reg.records[rec.Name] = versions
		}
		if _, exists := versions[rec.Version]; !exists {
			versions[rec.Version] = rec
		}
	}
	return reg
}

// Contains reports whether any version of the named package is listed.
func (r *Registry) Contains(name string) bool {
	_, ok := r.records[name]
	return ok
}

// Lookup returns the record for an exact (name, version) pair. Versions are
// opaque identity tokens, compared with case-sensitive string equality.
func (r *Registry) Lookup(name string, version string) (CompromisedRecord, bool) {
	versions, ok := r.records[name]
	if !ok {
		return CompromisedRecord{}, false
	}
	rec, ok := versions[version]
	return rec, ok
}

// Versions returns the compromised versions listed for a package name.
func (r *Registry) Versions(name string) []string {
	versions, ok := r.records[name]
	if !ok {
		return nil
	}
	res := make([]string, 0, len(versions))
	for v := range versions {
		res = append(res, v)
	}
	return res
}

// Len returns the number of loaded (name, version) pairs.
func (r *Registry) Len() int {
	n := 0
	for _, versions := range r.records {
		n += len(versions)
	}
	return n
}

// LoadRegistry reads a comma-separated compromised-package list from path.
// Expected columns: name, version, advisory metadata (further columns are
// joined into the advisory field). An optional header row is detected and
// skipped. Malformed rows are skipped and counted, never fatal. A source
// with zero valid rows yields ErrRegistryUnavailable.
func LoadRegistry(fs afero.Fs, path string) (*Registry, *LoadStats, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, errors.WithSecondaryError(ErrRegistryUnavailable, err)
	}
	defer f.Close()

	reg, stats, err := parseRegistry(f)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("path", path).
		Int("records", reg.Len()).
		Int("malformed", stats.RowsMalformed).
		Msg("loaded compromised-package registry")
	return reg, stats, nil
}

func parseRegistry(r io.Reader) (*Registry, *LoadStats, error) {
	cr := csv.NewReader(r)
	// rows carry a variable amount of advisory metadata
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	reg := &Registry{records: map[string]map[string]CompromisedRecord{}}
	stats := &LoadStats{}

	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}

		stats.RowsTotal++
		// only the physical first row may be a header, even if it is
		// unparsable
		sniffHeader := first
		first = false

		if err != nil {
			stats.RowsMalformed++
			continue
		}
		if sniffHeader && isHeaderRow(row) {
			continue
		}

		rec, ok := recordFromRow(row)
		if !ok {
			stats.RowsMalformed++
			continue
		}

		versions, ok := reg.records[rec.Name]
		if !ok {
			versions = map[string]CompromisedRecord{}
			reg.records[rec.Name] = versions
		}
		if _, exists := versions[rec.Version]; exists {
			stats.RowsDuplicate++
			continue
		}
		versions[rec.Version] = rec
		stats.RowsLoaded++
	}

	if stats.RowsLoaded == 0 {
		return nil, nil, errors.WithDetail(ErrRegistryUnavailable, "source contains no valid rows")
	}
	return reg, stats, nil
}

func recordFromRow(row []string) (CompromisedRecord, bool) {
	if len(row) < 2 {
		return CompromisedRecord{}, false
	}
	rec := CompromisedRecord{
		Name:    strings.TrimSpace(row[0]),
		Version: strings.TrimSpace(row[1]),
	}
	if rec.Name == "" || rec.Version == "" {
		return CompromisedRecord{}, false
	}
	if len(row) > 2 {
		rec.Advisory = strings.TrimSpace(strings.Join(row[2:], " "))
	}
	return rec, true
}

// isHeaderRow detects the recommended header of the curated list. The
// original feeds label the first column package_name or name.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(row[0])) {
	case "package_name", "package", "name":
		return true
	}
	return false
}
