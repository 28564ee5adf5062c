// Package shard implements shard discovery (§4.4 / C4): turning a path
// to a file or a directory of files into the ordered list of shards that
// compose one logical volume.
package shard

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
)

// pattern matches a NetCDF shard's basename: an underscore- or
// dot-delimited "nc" component, optionally bzip2-compressed.
var pattern = regexp.MustCompile(`.*[._]nc(\.bz2)?$`)

// Discover returns the ordered list of shard paths composing the logical
// volume rooted at path. A regular file is its own single-element
// result; a directory is walked recursively and every matching entry is
// returned sorted lexicographically by full path. Returns
// cdferr.ErrNoShards if nothing matches.
func Discover(path string) ([]string, error) {
	path = strings.TrimRight(path, string(filepath.Separator))

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var found []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		if pattern.MatchString(fi.Name()) {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, cdferr.ErrNoShards
	}
	sort.Strings(found)
	return found, nil
}

// IsCompressed reports whether path names a bzip2-compressed shard.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".bz2")
}
