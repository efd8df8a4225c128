// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cli_errors "go.mondoo.com/npmscan/cli/errors"
	"go.mondoo.com/npmscan/cli/reporter"
	"go.mondoo.com/npmscan/registry"
	"go.mondoo.com/npmscan/scan"
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("registry-file", "", "Path to the compromised-package list (CSV)")
	scanCmd.Flags().StringSlice("root", nil, "Directory to scan for installed packages (can be passed multiple times)")
	scanCmd.Flags().String("report-file", defaultReportPath(), "Path of the published findings artifact")
	scanCmd.Flags().StringP("output", "o", "compact", "Set output format: "+reporter.AllFormats())
	scanCmd.Flags().String("output-target", "", "Set output target for the secondary report; default is stdout")
	scanCmd.Flags().Int("max-depth", scan.DefaultMaxDepth, "Limit directory traversal depth below each scan root")
	scanCmd.Flags().Int("workers", scan.DefaultWorkers, "Number of scan roots traversed concurrently")

	viper.BindPFlag("registry_file", scanCmd.Flags().Lookup("registry-file"))
	viper.BindPFlag("scan_roots", scanCmd.Flags().Lookup("root"))
	viper.BindPFlag("report_file", scanCmd.Flags().Lookup("report-file"))
	viper.BindPFlag("output", scanCmd.Flags().Lookup("output"))
	viper.BindPFlag("output_target", scanCmd.Flags().Lookup("output-target"))
	viper.BindPFlag("max_depth", scanCmd.Flags().Lookup("max-depth"))
	viper.BindPFlag("workers", scanCmd.Flags().Lookup("workers"))
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan this endpoint for installed compromised npm packages",
	Long: `
This command walks the configured scan roots for installed npm packages and
compares every (name, version) pair against a curated compromised-package
list. It publishes the findings artifact for the inventory reporting step
and prints a report:

    $ npmscan scan --registry-file compromised.csv --root /Users

A clean scan still publishes the artifact (header only), and findings never
fail the run; the exit code reflects operational health only.
	`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := scanConfigFromViper()
		return executeScan(cmd.Context(), afero.NewOsFs(), conf)
	},
}

type scanConfig struct {
	RegistryFile string
	Roots        []string
	ReportFile   string
	Output       string
	OutputTarget string
	MaxDepth     int
	Workers      int
}

func scanConfigFromViper() scanConfig {
	return scanConfig{
		RegistryFile: viper.GetString("registry_file"),
		Roots:        viper.GetStringSlice("scan_roots"),
		ReportFile:   viper.GetString("report_file"),
		Output:       viper.GetString("output"),
		OutputTarget: viper.GetString("output_target"),
		MaxDepth:     viper.GetInt("max_depth"),
		Workers:      viper.GetInt("workers"),
	}
}

// defaultReportPath is the well-known artifact location the downstream
// consumer polls.
func defaultReportPath() string {
	if runtime.GOOS == "darwin" {
		return "/Library/Application Support/Security/intel/npm_findings.csv"
	}
	return "/var/lib/security/intel/npm_findings.csv"
}

// defaultScanRoots covers the common global install prefixes plus the
// invoking user's home. The npm runtime itself is not needed, the engine
// reads manifests straight off the disk.
func defaultScanRoots() []string {
	roots := []string{
		"/usr/local/lib/node_modules",
		"/usr/lib/node_modules",
	}
	if runtime.GOOS == "darwin" {
		roots = append(roots, "/opt/homebrew/lib/node_modules")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		roots = append(roots, home)
	}
	return roots
}

// executeScan is the orchestration sequence: load the registry, scan,
// publish the findings artifact, then render the secondary report. Errors
// come back as CommandErrors carrying the exit-code contract.
func executeScan(ctx context.Context, fs afero.Fs, conf scanConfig) error {
	if conf.RegistryFile == "" {
		return cli_errors.NewCommandError(
			errors.New("no compromised-package registry configured, use --registry-file"),
			cli_errors.ExitCodeConfig,
		)
	}

	// reject a bad output format before doing any work
	handler, err := reporter.NewOutputHandler(fs, reporter.HandlerConfig{
		Format:       conf.Output,
		OutputTarget: conf.OutputTarget,
	})
	if err != nil {
		return cli_errors.NewCommandError(err, cli_errors.ExitCodeConfig)
	}

	reg, stats, err := registry.LoadRegistry(fs, conf.RegistryFile)
	if err != nil {
		return cli_errors.NewCommandError(err, cli_errors.ExitCodeConfig)
	}
	if stats.RowsMalformed > 0 {
		log.Warn().Int("rows", stats.RowsMalformed).Msg("registry contains malformed rows")
	}

	roots := conf.Roots
	if len(roots) == 0 {
		roots = defaultScanRoots()
		log.Info().Strs("roots", roots).Msg("no scan roots configured, using defaults")
	}

	scanner := scan.NewLocalScanner(
		scan.WithFs(fs),
		scan.WithWorkers(conf.Workers),
		scan.WithMaxDepth(conf.MaxDepth),
	)
	res, err := scanner.Run(ctx, &scan.Job{Registry: reg, Roots: roots})
	if err != nil {
		if errors.Is(err, scan.ErrNoReachableRoots) {
			return cli_errors.NewCommandError(err, cli_errors.ExitCodeNoRoots)
		}
		return cli_errors.NewCommandError(err, cli_errors.ExitCodeConfig)
	}

	// the artifact and the secondary report are both attempted; a missing
	// or partial artifact is worse than a clearly failed run
	var publishErrs *multierror.Error
	reportFile := filepath.Clean(conf.ReportFile)
	if err := reporter.PublishFindingsArtifact(ctx, fs, reportFile, res); err != nil {
		publishErrs = multierror.Append(publishErrs, err)
	}
	if err := handler.WriteReport(ctx, res); err != nil {
		publishErrs = multierror.Append(publishErrs, err)
	}
	if err := publishErrs.ErrorOrNil(); err != nil {
		return cli_errors.NewCommandError(err, cli_errors.ExitCodeReport)
	}

	return nil
}
