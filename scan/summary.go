// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import "sync/atomic"

// Summary accumulates scan counters. All counters are safe for concurrent
// use by traversal workers; nothing else shares mutable state between them.
type Summary struct {
	rootsScanned     atomic.Int64
	rootsSkipped     atomic.Int64
	dirsSkipped      atomic.Int64
	manifestsRead    atomic.Int64
	manifestsSkipped atomic.Int64
	findings         atomic.Int64
}

// SummarySnapshot is an immutable copy of the counters, taken once the run
// is finalized. It feeds logging and the exit-code decision; it is not part
// of the report contract.
type SummarySnapshot struct {
	RootsScanned     int64 `json:"rootsScanned"`
	RootsSkipped     int64 `json:"rootsSkipped"`
	DirsSkipped      int64 `json:"dirsSkipped"`
	ManifestsRead    int64 `json:"manifestsRead"`
	ManifestsSkipped int64 `json:"manifestsSkipped"`
	Findings         int64 `json:"findings"`
}

func (s *Summary) Snapshot() SummarySnapshot {
	return SummarySnapshot{
		RootsScanned:     s.rootsScanned.Load(),
		RootsSkipped:     s.rootsSkipped.Load(),
		DirsSkipped:      s.dirsSkipped.Load(),
		ManifestsRead:    s.manifestsRead.Load(),
		ManifestsSkipped: s.manifestsSkipped.Load(),
		Findings:         s.findings.Load(),
	}
}
