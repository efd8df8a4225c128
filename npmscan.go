// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package npmscan

import "strings"

// Version is set via ldflags
var Version string

// Build version is set via ldflags
var Build string

// Date is set via ldflags
var Date string

// GetVersion returns the version of the engine. On development, it
// returns "unstable".
func GetVersion() string {
	if Version == "" {
		return "unstable"
	}
	return Version
}

// GetBuild returns the git sha of the build or "development" during development
func GetBuild() string {
	b := strings.TrimSpace(Build)
	if len(b) == 0 || b == "unknown" {
		b = "development"
	}
	return b
}

func GetDate() string {
	d := strings.TrimSpace(Date)
	if d == "" {
		d = "unknown"
	}
	return d
}

// Info on this version and build
func Info() string {
	return "npmscan " + GetVersion() + " (" + GetBuild() + ", " + GetDate() + ")"
}
