// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package reporter

import (
	"encoding/csv"
	"io"

	"go.mondoo.com/npmscan/scan"
)

type csvRow struct {
	Name      string
	Installed string
	Location  string
	Advisory  string
}

func (c csvRow) toSlice() []string {
	return []string{c.Name, c.Installed, c.Location, c.Advisory}
}

// csvHeader is the column contract with the downstream consumer: it reads
// columns 1, 2, and 4 for the human summary and treats a header-only file
// as a clean scan. Do not reorder without a coordinated change downstream.
var csvHeader = csvRow{"package_name", "installed_version", "location", "advisory"}

// ReportToCSV writes the findings as the tabular report artifact. The
// header row is always present, even for a clean scan.
func ReportToCSV(res *scan.ScanResult, out io.Writer) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader.toSlice()); err != nil {
		return err
	}

	for i := range res.Findings {
		f := res.Findings[i]
		row := csvRow{
			Name:      f.Package.Name,
			Installed: f.Package.Version,
			Location:  f.Package.ManifestPath,
			Advisory:  f.Record.Advisory,
		}
		if err := w.Write(row.toSlice()); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
