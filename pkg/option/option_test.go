package option

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAppliesOptionsOverDefaults(t *testing.T) {
	o := Build(
		WithCacheLocation("/tmp/cache.db"),
		WithCacheLimit(1024),
		WithThumbnailSizes(64, 128),
		WithReplace(true),
		WithDryRun(true),
	)

	require.Equal(t, "/tmp/cache.db", o.CacheLocation)
	require.EqualValues(t, 1024, o.CacheLimit)
	require.Equal(t, []int{64, 128}, o.ThumbnailSizes)
	require.True(t, o.Replace)
	require.True(t, o.DryRun)
	require.NotNil(t, o.Logger)
}

func TestDefaultsDisableCacheAndThumbnails(t *testing.T) {
	o := Defaults()
	require.Empty(t, o.CacheLocation)
	require.Empty(t, o.ThumbnailSizes)
	require.False(t, o.Replace)
	require.False(t, o.DryRun)
}

func TestLoadDefaultsReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	content := "cache_location: /var/cache/cdfkit.db\nthumbnail_sizes: [64, 256]\nreplace: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	o, err := LoadDefaults(path)
	require.NoError(t, err)
	require.Equal(t, "/var/cache/cdfkit.db", o.CacheLocation)
	require.Equal(t, []int{64, 256}, o.ThumbnailSizes)
	require.True(t, o.Replace)
}

func TestLoadDefaultsMissingFileFails(t *testing.T) {
	_, err := LoadDefaults("/nonexistent/path.yaml")
	require.Error(t, err)
}
