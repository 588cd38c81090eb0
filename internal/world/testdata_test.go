package world

import (
	"io/fs"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/nbtdoc/nbttest"
	"github.com/annel0/mcworld/internal/region/regiontest"
)

// countingFS считает открытия файлов регионов и умеет ломать Stat каталога.
type countingFS struct {
	fstest.MapFS

	mu       sync.Mutex
	opens    map[string]int
	failStat map[string]bool
}

func newCountingFS(m fstest.MapFS) *countingFS {
	return &countingFS{MapFS: m, opens: make(map[string]int), failStat: make(map[string]bool)}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	if strings.HasSuffix(name, ".mca") {
		c.mu.Lock()
		c.opens[name]++
		c.mu.Unlock()
	}
	return c.MapFS.Open(name)
}

func (c *countingFS) Stat(name string) (fs.FileInfo, error) {
	if c.failStat[name] {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrPermission}
	}
	return c.MapFS.Stat(name)
}

func (c *countingFS) totalOpens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.opens {
		n += v
	}
	return n
}

// heights возвращает карту высот, где значение кодирует (x, z).
func heights(base int32) []int32 {
	hm := make([]int32, 256)
	for i := range hm {
		hm[i] = base + int32(i)
	}
	return hm
}

func chunkPayload(c coords.ChunkInWorld, hm []int32) []byte {
	return nbttest.Encode(nbttest.Compound{
		"DataVersion": int32(1343),
		"Level": nbttest.Compound{
			"xPos":      int32(c.X),
			"zPos":      int32(c.Z),
			"HeightMap": hm,
		},
	})
}

// regionWith собирает файл региона pos с перечисленными чанками мира.
func regionWith(pos coords.RegionPos, mtime uint32, chunks ...coords.ChunkInWorld) []byte {
	b := regiontest.NewBuilder()
	for _, c := range chunks {
		local, p := coords.RegionOf(c)
		if p != pos {
			panic("чанк вне региона")
		}
		b.Put(local.X, local.Z, chunkPayload(c, heights(int32(c.X))), mtime)
	}
	return b.Bytes()
}

func levelDat(name string) []byte {
	return nbttest.EncodeGzip(nbttest.Compound{
		"Data": nbttest.Compound{
			"LevelName": name,
			"version":   int32(19133),
		},
	})
}
