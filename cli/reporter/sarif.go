// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package reporter

import (
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"go.mondoo.com/npmscan/scan"
)

// ReportToSarif renders the findings as a SARIF 2.1.0 document. Each
// advisory is a rule; each physical installation that matches it is a
// result located at its manifest.
func ReportToSarif(res *scan.ScanResult, out io.Writer) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI("npmscan", "https://mondoo.com")

	seenRules := map[string]struct{}{}
	for i := range res.Findings {
		f := res.Findings[i]

		ruleID := f.Record.Advisory
		if ruleID == "" {
			ruleID = f.Record.Name + "@" + f.Record.Version
		}
		if _, ok := seenRules[ruleID]; !ok {
			seenRules[ruleID] = struct{}{}
			run.AddRule(ruleID).
				WithDescription("compromised npm package " + f.Record.Name + "@" + f.Record.Version)
		}

		run.CreateResultForRule(ruleID).
			WithLevel("error").
			WithMessage(sarif.NewTextMessage(f.Package.Name + "@" + f.Package.Version + " is a known-compromised release")).
			AddLocation(
				sarif.NewLocationWithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewSimpleArtifactLocation(f.Package.ManifestPath)),
				),
			)
	}

	report.AddRun(run)
	return report.PrettyWrite(out)
}
