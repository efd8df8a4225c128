// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import (
	"github.com/cockroachdb/errors"

	"go.mondoo.com/npmscan/registry"
)

// ErrNoReachableRoots indicates that none of the requested scan roots
// existed or could be opened. An endpoint that carries only a subset of the
// expected roots is normal; an endpoint that carries none of them is not.
var ErrNoReachableRoots = errors.New("no scan roots were reachable")

// Job describes a single scan invocation.
type Job struct {
	// Registry is the loaded compromised-package list. It is read-only for
	// the duration of the run.
	Registry *registry.Registry
	// Roots are the directories to traverse for installed packages.
	Roots []string
}

// DiscoveredPackage is one physically installed npm package. The same
// logical (name, version) may be discovered at several locations; every
// location is its own DiscoveredPackage.
type DiscoveredPackage struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	ManifestPath string `json:"manifestPath"`
	InstallRoot  string `json:"installRoot"`
}

// Finding is a confirmed match between an installed package and a registry
// record. Its (name, version) is identical on both sides by construction.
type Finding struct {
	Package DiscoveredPackage          `json:"package"`
	Record  registry.CompromisedRecord `json:"record"`
}

// ScanResult is the outcome of one completed scan run.
type ScanResult struct {
	// ID identifies the run in logs and report metadata.
	ID       string          `json:"id"`
	Findings []Finding       `json:"findings"`
	Summary  SummarySnapshot `json:"summary"`
}

// HasFindings reports whether the scan matched any compromised package.
func (r *ScanResult) HasFindings() bool {
	return len(r.Findings) > 0
}
