// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package components

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"go.mondoo.com/npmscan/scan"
)

// RenderFindings renders the scan result as a compact table for terminal
// output, followed by a one-line summary.
func RenderFindings(res *scan.ScanResult) []byte {
	var buf bytes.Buffer

	if len(res.Findings) == 0 {
		fmt.Fprintf(&buf, "No compromised npm packages found. (%d manifests checked, %d skipped)\n",
			res.Summary.ManifestsRead, res.Summary.ManifestsSkipped)
		return buf.Bytes()
	}

	table := tablewriter.NewWriter(&buf)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowLine(false)
	table.SetColumnSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	table.SetHeader([]string{"Package", "Installed", "Location", "Advisory"})

	for i := range res.Findings {
		f := res.Findings[i]
		table.Append([]string{
			f.Package.Name,
			f.Package.Version,
			f.Package.ManifestPath,
			f.Record.Advisory,
		})
	}
	table.Render()

	fmt.Fprintf(&buf, "\n%d compromised package installation(s) found across %d scanned root(s)\n",
		len(res.Findings), res.Summary.RootsScanned)
	return buf.Bytes()
}
