// fs.go holds a small helper for walking a template filesystem, since
// fs.Glob has no recursive "**" pattern.  The key export is CollectHTML,
// which returns every .html path under a directory of an fs.FS.
package theme

import (
	"io/fs"
	"sort"
	"strings"
)

// CollectHTML walks dir inside fsys and returns the *.html paths it finds,
// sorted so parse order is deterministic.  A missing dir yields no paths
// and no error.
func CollectHTML(fsys fs.FS, dir string) ([]string, error) {
	var files []string

	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if _, statErr := fs.Stat(fsys, dir); statErr != nil {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
