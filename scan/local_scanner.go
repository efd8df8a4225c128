// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
)

// DefaultWorkers and DefaultMaxDepth are the scanner settings used when no
// override is given. Exported so the CLI can state them in its flag help.
const (
	DefaultWorkers  = 4
	DefaultMaxDepth = 25

	defaultQueueSize = 128
)

// LocalScanner walks scan roots for installed npm packages and joins them
// against the compromised-package registry. One instance performs one
// logical pass per Run; it keeps no state between runs.
type LocalScanner struct {
	fs        afero.Fs
	workers   int
	maxDepth  int
	queueSize int
}

type ScannerOption func(*LocalScanner)

// WithFs replaces the filesystem the scanner operates on. Used by tests.
func WithFs(fs afero.Fs) ScannerOption {
	return func(s *LocalScanner) {
		s.fs = fs
	}
}

// WithWorkers sets how many scan roots are traversed concurrently.
func WithWorkers(n int) ScannerOption {
	return func(s *LocalScanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxDepth bounds how deep the discoverer descends below each root.
// Directories beyond the limit are ignored, they are not errors.
func WithMaxDepth(n int) ScannerOption {
	return func(s *LocalScanner) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

func NewLocalScanner(opts ...ScannerOption) *LocalScanner {
	ls := &LocalScanner{
		fs:        afero.NewOsFs(),
		workers:   DefaultWorkers,
		maxDepth:  DefaultMaxDepth,
		queueSize: defaultQueueSize,
	}

	for i := range opts {
		opts[i](ls)
	}

	return ls
}

// Run executes the scan job: root traversal workers stream candidate
// manifests over a bounded queue into a single collector that extracts
// metadata and matches it against the registry. Findings are sorted so the
// same filesystem state always yields a byte-identical report.
func (s *LocalScanner) Run(ctx context.Context, job *Job) (*ScanResult, error) {
	if job == nil || job.Registry == nil {
		return nil, errors.New("scan job needs a loaded registry")
	}
	if len(job.Roots) == 0 {
		return nil, ErrNoReachableRoots
	}

	runID := ksuid.New().String()
	log.Info().
		Str("scan", runID).
		Strs("roots", job.Roots).
		Int("registry-records", job.Registry.Len()).
		Msg("starting npm package scan")

	summary := &Summary{}
	candidates := make(chan candidate, s.queueSize)

	roots := make(chan string, len(job.Roots))
	for _, root := range job.Roots {
		roots <- root
	}
	close(roots)

	workers := s.workers
	if len(job.Roots) < workers {
		workers = len(job.Roots)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := &walker{
				fs:       s.fs,
				maxDepth: s.maxDepth,
				summary:  summary,
				emit: func(c candidate) {
					select {
					case candidates <- c:
					case <-ctx.Done():
					}
				},
			}
			for root := range roots {
				w.walkRoot(ctx, root)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(candidates)
	}()

	// single consumer: the match results and counters stay ordered without
	// any further locking
	var findings []Finding
	for c := range candidates {
		pkg, err := extractManifest(s.fs, c)
		if err != nil {
			summary.manifestsSkipped.Add(1)
			log.Warn().Err(err).Str("manifest", c.manifestPath).Msg("skipping manifest")
			continue
		}
		summary.manifestsRead.Add(1)

		if f, ok := Match(*pkg, job.Registry); ok {
			summary.findings.Add(1)
			findings = append(findings, *f)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "scan aborted")
	}

	snap := summary.Snapshot()
	if snap.RootsScanned == 0 {
		return nil, ErrNoReachableRoots
	}

	sortFindings(findings)

	log.Info().
		Str("scan", runID).
		Int64("manifests", snap.ManifestsRead).
		Int64("skipped", snap.ManifestsSkipped+snap.DirsSkipped).
		Int64("findings", snap.Findings).
		Msg("scan completed")

	return &ScanResult{
		ID:       runID,
		Findings: findings,
		Summary:  snap,
	}, nil
}

// sortFindings pins the report row order. Traversal across concurrent
// workers is unordered, so the final order is fixed here instead.
func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i].Package, findings[j].Package
		if a.InstallRoot != b.InstallRoot {
			return a.InstallRoot < b.InstallRoot
		}
		if a.ManifestPath != b.ManifestPath {
			return a.ManifestPath < b.ManifestPath
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Version < b.Version
	})
}
