// Package classifier groups checkpoint files into model categories using the
// category pattern table.
//
// A checkpoint is first matched by the name of its top-level folder, which must
// equal one of a category's patterns (ignoring case); the first category in table
// order wins. Unmatched checkpoints get a second chance against the privileged
// categories (flux, then sdxl) where any pattern contained in the display name is
// enough. Everything else lands in "other".
package classifier

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/config"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/registry"
)

// privilegedTypes are retried by substring match, in this order.
var privilegedTypes = []string{"flux", "sdxl"}

type Entry struct {
	// RelPath is relative to the "checkpoints" root directory.
	RelPath  string
	Filename string
	FullPath string
}

type Model struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type ModelList []Model

func (l ModelList) Names() []string {
	out := make([]string, 0, len(l))
	for _, m := range l {
		out = append(out, m.Name)
	}
	return out
}

func (l ModelList) Paths() map[string]string {
	out := make(map[string]string, len(l))
	for _, m := range l {
		out[m.Name] = m.Path
	}
	return out
}

// Classified maps each category to its models sorted by name, ignoring case.
type Classified struct {
	order  []string
	models map[string]ModelList
}

// Types returns the categories in table order, "other" last unless declared.
func (c *Classified) Types() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Models returns the models of category, empty for unknown categories.
func (c *Classified) Models(category string) ModelList {
	return c.models[category]
}

func (c *Classified) Lookup(category string, name string) (string, bool) {
	for _, m := range c.models[category] {
		if m.Name == name {
			return m.Path, true
		}
	}
	return "", false
}

func (c *Classified) Total() int {
	total := 0
	for _, models := range c.models {
		total += len(models)
	}
	return total
}

// Checkpoints lists every checkpoint known to reg with its path relative to the
// "checkpoints" root. Files that no longer resolve are skipped.
func Checkpoints(reg registry.FileRegistry) []Entry {
	var entries []Entry

	for _, filename := range reg.FilenameList(config.FolderCheckpoints) {
		fullPath, ok := reg.FullPath(config.FolderCheckpoints, filename)
		if !ok || fullPath == "" {
			continue
		}

		entries = append(entries, Entry{
			RelPath:  relativeToRoot(fullPath, filename),
			Filename: filename,
			FullPath: fullPath,
		})
	}

	return entries
}

// relativeToRoot returns the part of fullPath after its first "checkpoints"
// segment, or filename when there is no such segment or nothing follows it.
func relativeToRoot(fullPath string, filename string) string {
	parts := splitPath(fullPath)
	for i, part := range parts {
		if part != config.FolderCheckpoints {
			continue
		}

		if rest := parts[i+1:]; len(rest) > 0 {
			return filepath.Join(rest...)
		}
		return filename
	}

	return filename
}

func Classify(types *config.ModelTypes, entries []Entry) *Classified {
	order := types.Names()
	if !types.Has(config.OtherModelType) {
		order = append(order, config.OtherModelType)
	}

	buckets := make(map[string]*bucket, len(order))
	for _, t := range order {
		buckets[t] = newBucket()
	}

	var unmatched []Model

	for _, e := range entries {
		name := trimExtension(e.Filename)

		parts := splitPath(e.RelPath)
		if len(parts) == 0 {
			unmatched = append(unmatched, Model{Name: name, Path: e.FullPath})
			continue
		}

		segment := parts[0]
		folder := strings.ToLower(segment)
		name = stripFolder(name, segment)

		if t, ok := matchFolder(types, folder); ok {
			buckets[t].add(name, e.FullPath)
			continue
		}

		unmatched = append(unmatched, Model{Name: name, Path: e.FullPath})
	}

	for _, m := range unmatched {
		t, ok := matchPrivileged(types, m.Name)
		if !ok {
			t = config.OtherModelType
		}
		buckets[t].add(m.Name, m.Path)
	}

	c := &Classified{order: order, models: make(map[string]ModelList, len(order))}
	for _, t := range order {
		c.models[t] = buckets[t].sorted()
	}

	return c
}

func matchFolder(types *config.ModelTypes, folder string) (string, bool) {
	for _, t := range types.Names() {
		for _, pattern := range types.Patterns(t) {
			if strings.ToLower(pattern) == folder {
				return t, true
			}
		}
	}
	return "", false
}

func matchPrivileged(types *config.ModelTypes, name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, t := range privilegedTypes {
		if !types.Has(t) {
			continue
		}
		for _, pattern := range types.Patterns(t) {
			if strings.Contains(lower, strings.ToLower(pattern)) {
				return t, true
			}
		}
	}
	return "", false
}

// stripFolder removes a leading folder name (ignoring case) and the separators
// that follow it.
func stripFolder(name string, segment string) string {
	if len(name) < len(segment) || !strings.EqualFold(name[:len(segment)], segment) {
		return name
	}
	return strings.TrimLeft(name[len(segment):], `_-/\ `)
}

// trimExtension drops the extension of the last path element only.
func trimExtension(filename string) string {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 || strings.ContainsAny(filename[dot:], `/\`) {
		return filename
	}
	return filename[:dot]
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// bucket keeps first-insertion order; a repeated name overwrites the path in place.
type bucket struct {
	index  map[string]int
	models ModelList
}

func newBucket() *bucket {
	return &bucket{index: make(map[string]int)}
}

func (b *bucket) add(name string, path string) {
	if i, ok := b.index[name]; ok {
		b.models[i].Path = path
		return
	}
	b.index[name] = len(b.models)
	b.models = append(b.models, Model{Name: name, Path: path})
}

func (b *bucket) sorted() ModelList {
	out := make(ModelList, len(b.models))
	copy(out, b.models)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
