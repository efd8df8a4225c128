// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// extractManifest parses a package.json candidate into a DiscoveredPackage.
// Name and version are taken verbatim apart from trimming surrounding
// whitespace; versions stay opaque tokens because matching is exact-string.
// Any failure is a skip reason for this one manifest, never for the run.
func extractManifest(fs afero.Fs, c candidate) (*DiscoveredPackage, error) {
	raw, err := afero.ReadFile(fs, c.manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read manifest")
	}

	var meta struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errors.Wrap(err, "malformed manifest")
	}

	name := strings.TrimSpace(meta.Name)
	version := strings.TrimSpace(meta.Version)
	if name == "" || version == "" {
		return nil, errors.New("manifest is missing name or version")
	}

	return &DiscoveredPackage{
		Name:         name,
		Version:      version,
		ManifestPath: c.manifestPath,
		InstallRoot:  c.installRoot,
	}, nil
}
