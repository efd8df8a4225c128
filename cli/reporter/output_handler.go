// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package reporter

import (
	"context"
	"os"

	"github.com/spf13/afero"

	"go.mondoo.com/npmscan/scan"
)

type HandlerConfig struct {
	Format       string
	OutputTarget string
}

type OutputHandler interface {
	WriteReport(ctx context.Context, res *scan.ScanResult) error
}

// NewOutputHandler returns a handler for the requested format and target.
// An empty target means stdout; anything else is a local file path. The
// engine runs on managed endpoints without network access, so remote
// targets are not supported.
func NewOutputHandler(fs afero.Fs, config HandlerConfig) (OutputHandler, error) {
	format, err := ParseFormat(config.Format)
	if err != nil {
		return nil, err
	}
	if config.OutputTarget == "" {
		return NewReporter(format, os.Stdout), nil
	}
	return &localFileHandler{fs: fs, file: config.OutputTarget, format: format}, nil
}
