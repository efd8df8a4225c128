// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package reporter

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"go.mondoo.com/npmscan/scan"
)

type localFileHandler struct {
	fs     afero.Fs
	file   string
	format Format
}

func (h *localFileHandler) WriteReport(ctx context.Context, res *scan.ScanResult) error {
	trimmedFile := strings.TrimPrefix(h.file, "file://")
	if err := writeReportAtomic(ctx, h.fs, trimmedFile, h.format, res); err != nil {
		return err
	}
	log.Info().Str("file", trimmedFile).Msg("wrote report to file")
	return nil
}

// PublishFindingsArtifact writes the CSV findings artifact at its
// well-known path. The downstream consumer reads this file on its own
// schedule, so publication must be atomic.
func PublishFindingsArtifact(ctx context.Context, fs afero.Fs, path string, res *scan.ScanResult) error {
	if err := writeReportAtomic(ctx, fs, path, FormatCSV, res); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("findings", len(res.Findings)).Msg("published findings artifact")
	return nil
}

// writeReportAtomic renders the report into a temp file in the target's
// directory and renames it over the target, so a concurrent reader never
// observes a partially written report.
func writeReportAtomic(ctx context.Context, fs afero.Fs, path string, format Format, res *scan.ScanResult) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "cannot create report directory")
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.Wrap(err, "cannot create temporary report file")
	}
	tmpName := tmp.Name()

	if err := NewReporter(format, tmp).WriteReport(ctx, res); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return errors.Wrap(err, "cannot render report")
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return errors.Wrap(err, "cannot flush report")
	}

	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return errors.Wrap(err, "cannot publish report")
	}
	return nil
}
