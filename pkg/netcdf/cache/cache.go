// Package cache implements the persistent header cache (§4.2 / C2): a
// path+mtime+size keyed map from file path to the leading bytes of that
// file, so re-parsing a header never has to touch disk for files whose
// header hasn't changed. It is strictly bounded to a small prefix of
// each file — callers must never stream volume body data through it.
package cache

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
	"github.com/bgrewell/cdf-kit/pkg/consts"
)

// Reader is a positioned reader over one file, transparently backed by
// the header cache. It satisfies reader.Source.
type Reader struct {
	path      string
	cacheKey  string
	store     Store
	limit     int64
	stat      os.FileInfo
	buffer    []byte
	offset    int64
	highWater int64
}

// Open opens path for cached reading. store may be nil to disable
// caching entirely (every read passes through to the real file). root,
// if non-empty and a prefix of path, is stripped to form the cache key —
// this lets a cache built against one mount point stay valid under
// another. limit caps the offset any Read may target; pass 0 to use
// consts.DefaultCacheLimit.
func Open(path string, store Store, root string, limit int64) (*Reader, error) {
	if limit <= 0 {
		limit = consts.DefaultCacheLimit
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cache: stat %s: %w", path, err)
	}

	key := path
	if root != "" && strings.HasPrefix(path, root) {
		key = path[len(root):]
	}

	r := &Reader{path: path, cacheKey: key, store: store, limit: limit, stat: stat}

	if store != nil {
		entry, ok, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		if ok && entry.matches(stat.ModTime(), stat.Size()) {
			r.buffer = entry.Prefix
		}
	}
	return r, nil
}

// grow ensures the buffer covers at least size bytes, reading from the
// real file if necessary. The file handle is opened and closed around
// this single operation — no handle is kept live between reads.
func (r *Reader) grow(size int64) error {
	if int64(len(r.buffer)) >= size {
		return nil
	}
	if size > r.limit {
		return fmt.Errorf("cache: read at offset %d exceeds limit %d: %w", size, r.limit, cdferr.ErrCacheLimitExceeded)
	}

	n := int64(len(r.buffer))
	if n < 4096 {
		n = 4096
	}
	for n < size {
		n *= 2
	}
	if n > r.stat.Size() {
		n = r.stat.Size()
	}

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("cache: reopening %s: %w", r.path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("cache: reading %s: %w", r.path, err)
	}
	r.buffer = buf[:read]

	newStat, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("cache: restat %s: %w", r.path, err)
	}
	if !newStat.ModTime().Equal(r.stat.ModTime()) || newStat.Size() != r.stat.Size() {
		return fmt.Errorf("cache: %s: %w", r.path, cdferr.ErrCacheStale)
	}
	return nil
}

// Read implements reader.Source.
func (r *Reader) Read(p []byte) (int, error) {
	start := r.offset
	want := start + int64(len(p))
	if err := r.grow(want); err != nil {
		return 0, err
	}
	if start > int64(len(r.buffer)) {
		start = int64(len(r.buffer))
	}
	end := want
	if end > int64(len(r.buffer)) {
		end = int64(len(r.buffer))
	}
	n := copy(p, r.buffer[start:end])
	r.offset += int64(n)
	if r.offset > r.highWater {
		r.highWater = r.offset
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements reader.Source. It never triggers a read.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		r.offset = offset
	case io.SeekCurrent:
		r.offset += offset
	case io.SeekEnd:
		r.offset = r.stat.Size() + offset
	default:
		return 0, fmt.Errorf("cache: invalid whence %d", whence)
	}
	return r.offset, nil
}

// Close writes the accumulated prefix back to the store (if caching is
// enabled and the destination is writable per Store.Put's own rules)
// and releases no further resources — no file handle is held open
// between reads.
func (r *Reader) Close() error {
	if r.store == nil {
		return nil
	}
	prefix := r.buffer
	if int64(len(prefix)) > r.highWater {
		prefix = prefix[:r.highWater]
	}
	return r.store.Put(r.cacheKey, Entry{
		ModTime: r.stat.ModTime(),
		Size:    r.stat.Size(),
		Prefix:  prefix,
	})
}
