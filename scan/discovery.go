// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// candidate is a manifest path the discoverer handed to the collector,
// together with the scan root it was found under.
type candidate struct {
	manifestPath string
	installRoot  string
}

// maxLinkHops bounds symlink chain resolution, mirroring the kernel's ELOOP
// limit.
const maxLinkHops = 40

// walker traverses one scan root. Each walker owns its traversal state
// exclusively; only the summary counters are shared.
type walker struct {
	fs       afero.Fs
	maxDepth int
	summary  *Summary
	emit     func(candidate)
}

// walkRoot traverses a single scan root. A missing or unreadable root is
// skipped with a warning, it never fails the run. A root only counts as
// scanned once its top-level directory read succeeded; a root that exists
// but cannot be opened is as unreachable as a missing one.
func (w *walker) walkRoot(ctx context.Context, root string) {
	fi, err := w.fs.Stat(root)
	if err != nil || !fi.IsDir() {
		w.summary.rootsSkipped.Add(1)
		log.Warn().Str("root", root).Msg("scan root is missing or not a directory, skipping")
		return
	}

	branch := map[string]struct{}{}
	if !w.walkDir(ctx, root, root, 0, branch) {
		w.summary.rootsSkipped.Add(1)
		log.Warn().Str("root", root).Msg("scan root cannot be read, skipping")
		return
	}
	w.summary.rootsScanned.Add(1)
}

// walkDir descends into dir and reports whether dir itself was readable.
// Directory entries are visited in lexicographic order so that the same
// filesystem state always yields the same report. The branch set holds the
// resolved paths of the current traversal branch; it keeps symlink cycles
// from recursing while staying bounded by the branch depth rather than the
// size of the tree.
func (w *walker) walkDir(ctx context.Context, dir string, root string, depth int, branch map[string]struct{}) bool {
	if ctx.Err() != nil {
		return true
	}

	resolved := w.resolveLinks(dir)
	if _, seen := branch[resolved]; seen {
		w.summary.dirsSkipped.Add(1)
		log.Debug().Str("dir", dir).Str("resolved", resolved).Msg("symlink cycle detected, not descending")
		return true
	}
	branch[resolved] = struct{}{}
	defer delete(branch, resolved)

	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		// the root-level failure is the caller's to count
		if depth > 0 {
			w.summary.dirsSkipped.Add(1)
			log.Warn().Err(err).Str("dir", dir).Msg("cannot read directory, skipping")
		}
		return false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())

		isDir := entry.IsDir()
		if entry.Mode()&os.ModeSymlink != 0 {
			target, err := w.fs.Stat(child)
			if err != nil {
				// broken symlink
				w.summary.dirsSkipped.Add(1)
				log.Debug().Str("path", child).Msg("broken symlink, skipping")
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			if depth+1 > w.maxDepth {
				log.Debug().Str("dir", child).Int("depth", depth+1).Msg("depth limit reached, not descending")
				continue
			}
			// nested read failures are counted inside the call
			w.walkDir(ctx, child, root, depth+1, branch)
			continue
		}

		if entry.Name() == manifestName && isPackageDir(dir) {
			w.emit(candidate{manifestPath: child, installRoot: root})
		}
	}
	return true
}

// resolveLinks follows a symlink chain to its target path. Filesystems
// without symlink support return the path unchanged.
func (w *walker) resolveLinks(path string) string {
	cur := filepath.Clean(path)
	for i := 0; i < maxLinkHops; i++ {
		reader, ok := w.fs.(afero.LinkReader)
		if !ok {
			return cur
		}
		target, err := reader.ReadlinkIfPossible(cur)
		if err != nil || target == "" {
			return cur
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(cur), target)
		}
		cur = filepath.Clean(target)
	}
	return cur
}

const manifestName = "package.json"

// isPackageDir reports whether dir is an npm package installation
// directory, i.e. a direct child of node_modules or a child of a scoped
// @org directory inside node_modules. Dot-directories such as .bin hold
// tooling, not packages.
func isPackageDir(dir string) bool {
	base := filepath.Base(dir)
	if strings.HasPrefix(base, ".") {
		return false
	}

	parent := filepath.Base(filepath.Dir(dir))
	if parent == "node_modules" {
		return !strings.HasPrefix(base, "@")
	}
	if strings.HasPrefix(parent, "@") {
		return filepath.Base(filepath.Dir(filepath.Dir(dir))) == "node_modules"
	}
	return false
}
