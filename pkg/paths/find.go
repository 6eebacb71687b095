package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/pkg/errors"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
)

/* Structs */

type Path struct {
	Path         string
	RelPath      string
	FileName     string
	Directory    string
	IsDir        bool
	Size         int64
	ModifiedTime time.Time
}

/* Types */

// callbackAllowed returns false to reject a path.
type callbackAllowed func(Path) bool

/* Public */

// InFolder walks folder concurrently and returns every accepted entry below it,
// sorted by RelPath, along with the combined size of accepted files.
func InFolder(folder string, includeFiles bool, includeFolders bool, acceptFn callbackAllowed) ([]Path, uint64, error) {
	log := logger.GetLogger("paths")

	var (
		found []Path
		size  uint64
		mu    sync.Mutex
	)

	conf := fastwalk.Config{Follow: true}
	err := fastwalk.Walk(&conf, folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).Warnf("Failed walking %s", path)
			return nil
		}

		if path == folder {
			return nil
		}

		info, err := fastwalk.StatDirEntry(path, d)
		if err != nil {
			log.WithError(err).Warnf("Failed to get file info for %s", path)
			return nil
		}

		if !includeFiles && !info.IsDir() {
			log.Tracef("Skipping file: %s", path)
			return nil
		}

		if !includeFolders && info.IsDir() {
			log.Tracef("Skipping folder: %s", path)
			return nil
		}

		rel, err := filepath.Rel(folder, path)
		if err != nil {
			rel = info.Name()
		}

		p := Path{
			Path:         path,
			RelPath:      rel,
			FileName:     info.Name(),
			Directory:    filepath.Dir(path),
			IsDir:        info.IsDir(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		}

		if acceptFn != nil && !acceptFn(p) {
			log.Tracef("Skipping rejected path: %s", path)
			return nil
		}

		mu.Lock()
		found = append(found, p)
		if !p.IsDir {
			size += uint64(p.Size)
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrapf(err, "walk %s", folder)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].RelPath < found[j].RelPath
	})

	return found, size, nil
}

// Exists reports whether path is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// HasExtension reports whether name ends with one of exts, ignoring case.
// An empty exts accepts everything.
func HasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}

	return false
}
