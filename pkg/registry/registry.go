// Package registry resolves model files by folder name ("checkpoints", "embeddings")
// across the configured search paths.
package registry

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/paths"
)

type FileRegistry interface {
	// FilenameList returns the files of folder relative to their search path,
	// sorted, with earlier search paths shadowing later ones.
	FilenameList(folder string) []string
	// FullPath resolves a name returned by FilenameList to an absolute path.
	FullPath(folder string, filename string) (string, bool)
	// FolderPaths returns the search paths configured for folder.
	FolderPaths(folder string) []string
}

type Disk struct {
	folders    map[string][]string
	extensions []string
	ignore     *paths.Ignore
	log        *logrus.Entry
}

func NewDisk(folders map[string][]string, extensions []string, ignore *paths.Ignore) *Disk {
	d := &Disk{
		folders:    make(map[string][]string, len(folders)),
		extensions: extensions,
		ignore:     ignore,
		log:        logger.GetLogger("registry"),
	}

	if n := ignore.Len(); n > 0 {
		d.log.Debugf("Using %d ignore patterns", n)
	}

	for name, searchPaths := range folders {
		for _, p := range searchPaths {
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			d.folders[name] = append(d.folders[name], p)
		}
	}

	return d
}

func (d *Disk) FilenameList(folder string) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, base := range d.folders[folder] {
		if !paths.Exists(base) {
			d.log.Debugf("Search path for %s does not exist: %s", folder, base)
			continue
		}

		found, _, err := paths.InFolder(base, true, false, func(p paths.Path) bool {
			return paths.HasExtension(p.FileName, d.extensions) && !d.ignore.IsIgnored(p.Path)
		})
		if err != nil {
			d.log.WithError(err).Errorf("Failed listing %s in %s", folder, base)
			continue
		}

		for _, p := range found {
			if _, ok := seen[p.RelPath]; ok {
				continue
			}
			seen[p.RelPath] = struct{}{}
			out = append(out, p.RelPath)
		}

		d.log.Tracef("Found %d %s files in %s", len(found), folder, base)
	}

	sort.Strings(out)
	return out
}

func (d *Disk) FullPath(folder string, filename string) (string, bool) {
	if !filepath.IsLocal(filename) {
		d.log.Warnf("Refusing to resolve non-local %s path: %q", folder, filename)
		return "", false
	}

	for _, base := range d.folders[folder] {
		candidate := filepath.Join(base, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return "", false
}

func (d *Disk) FolderPaths(folder string) []string {
	out := make([]string, len(d.folders[folder]))
	copy(out, d.folders[folder])
	return out
}
