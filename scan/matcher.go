// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import "go.mondoo.com/npmscan/registry"

// Match tests a discovered package against the registry. The policy is
// exact case-sensitive string equality on (name, version): advisories
// enumerate specific bad releases, so trading recall for zero false
// positives is intentional. Match is pure; it holds no state between calls.
func Match(pkg DiscoveredPackage, reg *registry.Registry) (*Finding, bool) {
	rec, ok := reg.Lookup(pkg.Name, pkg.Version)
	if !ok {
		return nil, false
	}
	return &Finding{Package: pkg, Record: rec}, true
}
