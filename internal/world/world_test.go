package world

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/annel0/mcworld/internal/cache"
	"github.com/annel0/mcworld/internal/coords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func worldFS() *countingFS {
	return newCountingFS(fstest.MapFS{
		"level.dat":               {Data: levelDat("Тестовый мир")},
		"region/r.0.0.mca":        {Data: regionWith(coords.RegionPos{X: 0, Z: 0}, 1, chunkA)},
		"DIM-1/region/r.0.0.mca":  {Data: regionWith(coords.RegionPos{X: 0, Z: 0}, 2, chunkA)},
		"DIM1/r.-1.-1.mca":        {Data: regionWith(coords.RegionPos{X: -1, Z: -1}, 3, chunkB)},
		"data/villages.dat":       {Data: []byte{0}},
		"playerdata/player.dat":   {Data: []byte{0}},
		"DIM-1/data/raids.dat":    {Data: []byte{0}},
		"empty_dim/region/x.json": {Data: []byte("{}")},
	})
}

func TestOpenFSDiscoversRegionsets(t *testing.T) {
	w, err := OpenFS(worldFS(), Options{})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "Тестовый мир", w.Name())
	assert.Equal(t, ".", w.Root())

	var dirs []string
	for _, rs := range w.Regionsets() {
		dirs = append(dirs, rs.Dir())
	}
	assert.Equal(t, []string{"DIM-1/region", "DIM1", "region"}, dirs)

	rs, ok := w.RegionsetByType(TypeNether)
	require.True(t, ok)
	assert.Equal(t, "DIM-1/region", rs.Dir())

	_, ok = w.RegionsetByType("aether")
	assert.False(t, ok)

	rs, ok = w.Regionset(2)
	require.True(t, ok)
	assert.Equal(t, TypeOverworld, rs.Type())
	_, ok = w.Regionset(3)
	assert.False(t, ok)
	_, ok = w.Regionset(-1)
	assert.False(t, ok)

	end, ok := w.RegionsetByType(TypeEnd)
	require.True(t, ok)
	_, ok = end.GetChunk(chunkB)
	assert.True(t, ok)

	version, err := w.Level().Int("Data/version")
	require.NoError(t, err)
	assert.Equal(t, int64(19133), version)
}

func TestOpenFSLevelData(t *testing.T) {
	_, err := OpenFS(fstest.MapFS{"region/r.0.0.mca": {Data: nil}}, Options{})
	assert.ErrorIs(t, err, ErrBadLevelData)

	_, err = OpenFS(fstest.MapFS{"level.dat": {Data: []byte("не gzip")}}, Options{})
	assert.ErrorIs(t, err, ErrBadLevelData)

	w, err := OpenFS(fstest.MapFS{"level.dat": {Data: levelDat("")}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, w.Regionsets())
}

func TestOpenFSBrokenRegionsetAborts(t *testing.T) {
	fsys := worldFS()
	fsys.failStat["DIM1"] = true

	_, err := OpenFS(fsys, Options{})
	assert.ErrorIs(t, err, ErrDirNotFound)
}

func TestOpenFSSkipBrokenRegionsets(t *testing.T) {
	fsys := worldFS()
	fsys.failStat["DIM1"] = true
	exp := cache.NewExporter()

	w, err := OpenFS(fsys, Options{SkipBrokenRegionsets: true, Exporter: exp})
	require.NoError(t, err)

	assert.Len(t, w.Regionsets(), 2)
	_, ok := w.RegionsetByType(TypeEnd)
	assert.False(t, ok)
	assert.Equal(t, []string{"DIM-1/region", "region"}, exp.Names())

	require.NoError(t, w.Close())
	assert.Empty(t, exp.Names())
}

func TestOpenFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, LevelFile), levelDat("Диск"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "region"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "region", "r.0.0.mca"),
		regionWith(coords.RegionPos{X: 0, Z: 0}, 42, chunkA), 0644))

	w, err := Open(root, Options{CacheCapacity: 1})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, root, w.Root())
	assert.Equal(t, "Диск", w.Name())

	rs, ok := w.RegionsetByType(TypeOverworld)
	require.True(t, ok)
	chunk, ok := rs.GetChunk(chunkA)
	require.True(t, ok)
	hm, err := chunk.Heightmap()
	require.NoError(t, err)
	assert.Equal(t, int32(chunkA.X)+17, hm.At(1, 1))
}

func TestOpenMissingWorld(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.ErrorIs(t, err, ErrWorldNotFound)
}
