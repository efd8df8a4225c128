// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package reporter

import (
	"encoding/json"
	"io"

	"sigs.k8s.io/yaml"

	"go.mondoo.com/npmscan/scan"
)

// ReportToJSON writes the full scan result, including the run summary, as
// indented JSON.
func ReportToJSON(res *scan.ScanResult, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// ReportToYAML converts the JSON report to YAML.
func ReportToYAML(res *scan.ScanResult, out io.Writer) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	converted, err := yaml.JSONToYAML(raw)
	if err != nil {
		return err
	}
	_, err = out.Write(converted)
	return err
}
