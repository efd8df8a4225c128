// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package reporter

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"go.mondoo.com/npmscan/scan"
)

// ReportToJunit maps the scan result to a JUnit suite. Every finding
// becomes a failed test case; a clean scan yields a single passing case so
// CI systems can tell "ran, clean" apart from "never ran".
func ReportToJunit(res *scan.ScanResult, out io.Writer) error {
	suites := junit.Testsuites{}

	properties := []junit.Property{
		{Name: "scanID", Value: res.ID},
		{Name: "manifestsRead", Value: strconv.FormatInt(res.Summary.ManifestsRead, 10)},
		{Name: "manifestsSkipped", Value: strconv.FormatInt(res.Summary.ManifestsSkipped, 10)},
	}
	ts := junit.Testsuite{
		Name:       "Compromised npm package scan",
		Properties: &properties,
	}

	if len(res.Findings) == 0 {
		ts.Tests = 1
		ts.Testcases = []junit.Testcase{
			{
				Classname: "scan",
				Name:      "no compromised packages installed",
			},
		}
	}

	for i := range res.Findings {
		f := res.Findings[i]
		ts.Tests++
		ts.Failures++
		ts.Testcases = append(ts.Testcases, junit.Testcase{
			Classname: "package",
			Name:      f.Package.Name + "@" + f.Package.Version,
			Failure: &junit.Result{
				Type:    "compromised-package",
				Message: f.Package.Name + "@" + f.Package.Version + " at " + f.Package.ManifestPath + " matches advisory " + f.Record.Advisory,
			},
		})
	}
	suites.Suites = append(suites.Suites, ts)

	data, err := xml.MarshalIndent(suites, "", "\t")
	if err != nil {
		return err
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n")
	return err
}
