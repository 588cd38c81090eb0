package world

import (
	"encoding/binary"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/annel0/mcworld/internal/cache"
	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/region"
	"github.com/annel0/mcworld/internal/region/regiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chunkA = coords.ChunkInWorld{X: 1, Z: 2}   // r(0,0), (1,2)
	chunkB = coords.ChunkInWorld{X: -1, Z: -1} // r(-1,-1), (31,31)
	chunkC = coords.ChunkInWorld{X: 33, Z: 0}  // r(1,0), (1,0)
)

func overworldFS() *countingFS {
	return newCountingFS(fstest.MapFS{
		"region/r.0.0.mca":   {Data: regionWith(coords.RegionPos{X: 0, Z: 0}, 1600000000, chunkA)},
		"region/r.-1.-1.mca": {Data: regionWith(coords.RegionPos{X: -1, Z: -1}, 1600000100, chunkB)},
		"region/r.1.0.mca":   {Data: regionWith(coords.RegionPos{X: 1, Z: 0}, 1600000200, chunkC)},
		"region/notes.txt":   {Data: []byte("не регион")},
	})
}

func TestNewRegionsetMissingDir(t *testing.T) {
	_, err := NewRegionset(fstest.MapFS{}, "region", Options{})
	assert.ErrorIs(t, err, ErrDirNotFound)
}

func TestRegionsetIndex(t *testing.T) {
	rs, err := NewRegionset(overworldFS(), "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	assert.Equal(t, 3, rs.Index().Len())
	assert.True(t, rs.Index().Has(coords.RegionPos{X: -1, Z: -1}))
	assert.Equal(t, "region", rs.Dir())
}

func TestGetChunkAbsentRegionNeverTouchesFS(t *testing.T) {
	fsys := overworldFS()
	rs, err := NewRegionset(fsys, "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	_, ok := rs.GetChunk(coords.ChunkInWorld{X: 500, Z: -900})
	assert.False(t, ok)
	_, ok = rs.GetChunkMtime(coords.ChunkInWorld{X: 500, Z: -900})
	assert.False(t, ok)
	assert.Equal(t, 0, fsys.totalOpens())
	assert.Equal(t, int64(0), rs.CacheStats().TotalRequests)
}

func TestGetChunkAndHeightmap(t *testing.T) {
	rs, err := NewRegionset(overworldFS(), "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	for _, c := range []coords.ChunkInWorld{chunkA, chunkB, chunkC} {
		chunk, ok := rs.GetChunk(c)
		require.True(t, ok, c.String())

		pos, ok := chunk.Position()
		require.True(t, ok)
		assert.Equal(t, c, pos)

		hm, err := chunk.Heightmap()
		require.NoError(t, err)
		require.Equal(t, HeightmapSize, hm.Len())
		assert.Len(t, hm.Values(), 256)

		for _, xz := range [][2]int{{0, 0}, {15, 0}, {0, 15}, {7, 9}, {15, 15}} {
			x, z := xz[0], xz[1]
			assert.Equal(t, int32(c.X)+int32(x+z*16), hm.At(x, z))
		}
		assert.Equal(t, hm.At(3, 4), hm.AtBlock(coords.BlockInChunk{X: 3, Y: 70, Z: 4}))

		// (16, 0) не должна читать колонку (0, 1)
		for _, xz := range [][2]int{{16, 0}, {-1, 0}, {0, 16}, {0, -1}} {
			assert.Panics(t, func() { hm.At(xz[0], xz[1]) }, "(%d, %d)", xz[0], xz[1])
		}
	}
}

func TestGetChunkMissingEntry(t *testing.T) {
	rs, err := NewRegionset(overworldFS(), "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	missing := coords.ChunkInWorld{X: 5, Z: 5} // r(0,0) есть, записи нет
	_, ok := rs.GetChunk(missing)
	assert.False(t, ok)

	_, err = rs.LoadChunk(missing)
	assert.ErrorIs(t, err, ErrChunkNotFound)

	_, err = rs.LoadChunk(coords.ChunkInWorld{X: 9000, Z: 9000})
	assert.ErrorIs(t, err, ErrChunkNotFound)
}

func TestCorruptChunkIsAbsentButDistinguishable(t *testing.T) {
	data := regiontest.NewBuilder().
		Put(0, 0, []byte("это не NBT"), 1).
		PutRaw(1, 0, 2, []byte("и не zlib"), 1).
		Bytes()
	rs, err := NewRegionset(fstest.MapFS{"region/r.0.0.mca": {Data: data}}, "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	for _, c := range []coords.ChunkInWorld{{X: 0, Z: 0}, {X: 1, Z: 0}} {
		_, ok := rs.GetChunk(c)
		assert.False(t, ok)

		_, err = rs.LoadChunk(c)
		assert.ErrorIs(t, err, ErrCorruptChunk)
		assert.NotErrorIs(t, err, ErrChunkNotFound)
	}
}

func TestCorruptRegionFile(t *testing.T) {
	rs, err := NewRegionset(fstest.MapFS{"region/r.0.0.mca": {Data: make([]byte, 100)}}, "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	_, ok := rs.GetChunk(coords.ChunkInWorld{})
	assert.False(t, ok)

	_, err = rs.LoadChunk(coords.ChunkInWorld{})
	assert.ErrorIs(t, err, ErrCorruptChunk)
	assert.Equal(t, 0, rs.CacheStats().OpenHandles)
}

func TestBadHeightmap(t *testing.T) {
	payload := chunkPayload(coords.ChunkInWorld{}, make([]int32, 10))
	data := regiontest.NewBuilder().Put(0, 0, payload, 1).Bytes()
	rs, err := NewRegionset(fstest.MapFS{"region/r.0.0.mca": {Data: data}}, "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	chunk, ok := rs.GetChunk(coords.ChunkInWorld{})
	require.True(t, ok)
	_, err = chunk.Heightmap()
	assert.ErrorIs(t, err, ErrBadHeightmap)
}

func TestRegionsetReusesHandles(t *testing.T) {
	fsys := overworldFS()
	rs, err := NewRegionset(fsys, "region", Options{CacheCapacity: 2})
	require.NoError(t, err)
	defer rs.Close()

	for i := 0; i < 5; i++ {
		_, ok := rs.GetChunk(chunkA)
		require.True(t, ok)
	}
	assert.Equal(t, 1, fsys.opens["region/r.0.0.mca"])

	// три региона при ёмкости 2: r(0,0) вытесняется
	rs.GetChunk(chunkB)
	rs.GetChunk(chunkC)
	stats := rs.CacheStats()
	assert.Equal(t, 2, stats.OpenHandles)
	assert.Equal(t, int64(1), stats.Evictions)

	rs.GetChunk(chunkA)
	assert.Equal(t, 2, fsys.opens["region/r.0.0.mca"])
}

func TestGetChunkMtimeBypassesCache(t *testing.T) {
	fsys := overworldFS()
	rs, err := NewRegionset(fsys, "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	mtime, ok := rs.GetChunkMtime(chunkB)
	require.True(t, ok)
	assert.Equal(t, time.Unix(1600000100, 0), mtime)

	_, ok = rs.GetChunkMtime(chunkB)
	require.True(t, ok)
	assert.Equal(t, 2, fsys.opens["region/r.-1.-1.mca"])
	assert.Equal(t, int64(0), rs.CacheStats().TotalRequests)

	_, ok = rs.GetChunkMtime(coords.ChunkInWorld{X: -2, Z: -1})
	assert.False(t, ok)
}

func TestZeroLengthEntryIsAbsentEverywhere(t *testing.T) {
	empty := coords.ChunkInWorld{X: 3, Z: 0}
	data := regionWith(coords.RegionPos{X: 0, Z: 0}, 10, chunkA, empty)
	// обнуляем длину записи (3, 0), таблица смещений остаётся
	sector := binary.BigEndian.Uint32(data[3*4:]) >> 8
	binary.BigEndian.PutUint32(data[sector*region.SectorSize:], 0)

	rs, err := NewRegionset(newCountingFS(fstest.MapFS{
		"region/r.0.0.mca": {Data: data},
	}), "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	_, ok := rs.GetChunk(empty)
	assert.False(t, ok)
	_, ok = rs.GetChunkMtime(empty)
	assert.False(t, ok)

	var got []coords.ChunkInWorld
	for stamp := range rs.Chunks() {
		got = append(got, stamp.Pos)
	}
	assert.Equal(t, []coords.ChunkInWorld{chunkA}, got)
}

func TestChunksEnumeratesAllRegions(t *testing.T) {
	extra := coords.ChunkInWorld{X: 3, Z: 0}
	fsys := newCountingFS(fstest.MapFS{
		"region/r.0.0.mca":   {Data: regionWith(coords.RegionPos{X: 0, Z: 0}, 10, chunkA, extra)},
		"region/r.-1.-1.mca": {Data: regionWith(coords.RegionPos{X: -1, Z: -1}, 20, chunkB)},
	})
	rs, err := NewRegionset(fsys, "region", Options{})
	require.NoError(t, err)
	defer rs.Close()

	var got []coords.ChunkInWorld
	for stamp := range rs.Chunks() {
		got = append(got, stamp.Pos)
		assert.False(t, stamp.Mtime.IsZero())
	}
	// регионы по (x, z), внутри региона z, затем x
	assert.Equal(t, []coords.ChunkInWorld{chunkB, extra, chunkA}, got)
	assert.Equal(t, int64(0), rs.CacheStats().TotalRequests)

	n := 0
	for range rs.Chunks() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRegionsetType(t *testing.T) {
	cases := map[string]string{
		"region":       TypeOverworld,
		"DIM-1":        TypeNether,
		"DIM-1/region": TypeNether,
		"DIM1":         TypeEnd,
		"DIM1/region":  TypeEnd,
		"DIM7/region":  "DIM7",
		"custom":       "custom",
	}
	for dir, want := range cases {
		rs := &Regionset{dir: dir}
		assert.Equal(t, want, rs.Type(), dir)
	}
}

func TestRegionsetExporterRegistration(t *testing.T) {
	exp := cache.NewExporter()
	rs, err := NewRegionset(overworldFS(), "region", Options{Exporter: exp})
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, exp.Names())

	require.NoError(t, rs.Close())
	assert.Empty(t, exp.Names())
}

func TestRegionsetConcurrentReads(t *testing.T) {
	fsys := overworldFS()
	rs, err := NewRegionset(fsys, "region", Options{CacheCapacity: 1})
	require.NoError(t, err)
	defer rs.Close()

	chunks := []coords.ChunkInWorld{chunkA, chunkB, chunkC}
	var wg sync.WaitGroup
	for g := 0; g < 6; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 30; i++ {
				c := chunks[(g+i)%len(chunks)]
				chunk, ok := rs.GetChunk(c)
				if assert.True(t, ok) {
					pos, _ := chunk.Position()
					assert.Equal(t, c, pos)
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, rs.CacheStats().OpenHandles, 1)
}
