// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package reporter renders scan results. The CSV findings artifact is a
// contract with the downstream inventory reporting step; everything else
// is for humans and CI systems.
package reporter

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"go.mondoo.com/npmscan/cli/components"
	"go.mondoo.com/npmscan/scan"
)

type Format byte

const (
	FormatCompact Format = iota + 1
	FormatCSV
	FormatJSON
	FormatYAMLv1
	FormatJUnit
	FormatSarif
)

// Formats that are supported by the reporter
var Formats = map[string]Format{
	"compact": FormatCompact,
	"csv":     FormatCSV,
	"json":    FormatJSON,
	"yaml":    FormatYAMLv1,
	"junit":   FormatJUnit,
	"sarif":   FormatSarif,
}

func AllFormats() string {
	var res []string
	for k := range Formats {
		res = append(res, k)
	}
	sort.Strings(res)
	return strings.Join(res, ", ")
}

func ParseFormat(name string) (Format, error) {
	format, ok := Formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Newf("unknown output format '%s'. Available: %s", name, AllFormats())
	}
	return format, nil
}

type Reporter struct {
	format Format
	out    io.Writer
}

func NewReporter(format Format, out io.Writer) *Reporter {
	return &Reporter{format: format, out: out}
}

func (r *Reporter) WriteReport(ctx context.Context, res *scan.ScanResult) error {
	switch r.format {
	case FormatCompact:
		_, err := r.out.Write(components.RenderFindings(res))
		return err
	case FormatCSV:
		return ReportToCSV(res, r.out)
	case FormatJSON:
		return ReportToJSON(res, r.out)
	case FormatYAMLv1:
		return ReportToYAML(res, r.out)
	case FormatJUnit:
		return ReportToJunit(res, r.out)
	case FormatSarif:
		return ReportToSarif(res, r.out)
	default:
		return errors.New("unknown report format")
	}
}
