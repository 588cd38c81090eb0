package world

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path"
	"strings"
	"time"

	"github.com/annel0/mcworld/internal/cache"
	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/logging"
	"github.com/annel0/mcworld/internal/nbtdoc"
	"github.com/annel0/mcworld/internal/region"
)

var (
	ErrDirNotFound   = errors.New("world: каталог регионов не найден")
	ErrChunkNotFound = errors.New("world: чанк отсутствует")
	ErrCorruptChunk  = errors.New("world: чанк повреждён")
)

// Типы измерений
const (
	TypeOverworld = "overworld"
	TypeNether    = "nether"
	TypeEnd       = "end"
)

// ChunkStamp - чанк, присутствующий на диске, и время его записи.
type ChunkStamp struct {
	Pos   coords.ChunkInWorld
	Mtime time.Time
}

// Regionset - одно измерение: файлы регионов каталога, их индекс и кеш
// открытых файлов.
type Regionset struct {
	fsys     fs.FS
	dir      string
	index    region.Index
	handles  *cache.HandleCache[coords.RegionPos, *region.File]
	exporter *cache.Exporter
	logger   *logging.Logger
}

// NewRegionset открывает каталог dir внутри fsys.
func NewRegionset(fsys fs.FS, dir string, opts Options) (*Regionset, error) {
	info, err := fs.Stat(fsys, dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}

	index, err := region.Discover(fsys, dir)
	if err != nil {
		return nil, err
	}

	handles, err := cache.NewHandleCache[coords.RegionPos, *region.File](dir, opts.CacheCapacity)
	if err != nil {
		return nil, err
	}

	rs := &Regionset{
		fsys:     fsys,
		dir:      dir,
		index:    index,
		handles:  handles,
		exporter: opts.Exporter,
		logger:   logging.GetWorldLogger(),
	}
	if rs.exporter != nil {
		rs.exporter.Add(dir, handles)
	}

	rs.logger.Info("🗺️ Regionset %s (%s): %d файлов регионов", dir, rs.Type(), index.Len())
	return rs, nil
}

// Dir возвращает каталог внутри файловой системы мира.
func (rs *Regionset) Dir() string {
	return rs.dir
}

// Index возвращает найденные на диске регионы.
func (rs *Regionset) Index() region.Index {
	return rs.index
}

// Type возвращает тип измерения по имени каталога.
func (rs *Regionset) Type() string {
	name := strings.TrimSuffix(rs.dir, "/region")
	switch name {
	case "region":
		return TypeOverworld
	case "DIM-1":
		return TypeNether
	case "DIM1":
		return TypeEnd
	default:
		return path.Base(name)
	}
}

// CacheStats возвращает метрики кеша дескрипторов.
func (rs *Regionset) CacheStats() cache.CacheMetrics {
	return rs.handles.Stats()
}

func (rs *Regionset) openRegion(pos coords.RegionPos) (*region.File, error) {
	f, err := rs.fsys.Open(path.Join(rs.dir, region.FileName(pos)))
	if err != nil {
		return nil, err
	}
	return region.Open(f)
}

// GetChunk возвращает чанк или false, если его нет или его не удалось
// прочитать. Ошибки чтения пишутся в лог.
func (rs *Regionset) GetChunk(c coords.ChunkInWorld) (*Chunk, bool) {
	chunk, err := rs.LoadChunk(c)
	if err != nil {
		if !errors.Is(err, ErrChunkNotFound) {
			rs.logger.Warn("⚠️ %s: %v", rs.dir, err)
		}
		return nil, false
	}
	return chunk, true
}

// LoadChunk читает чанк, различая отсутствие (ErrChunkNotFound) и
// повреждение (ErrCorruptChunk).
func (rs *Regionset) LoadChunk(c coords.ChunkInWorld) (*Chunk, error) {
	local, pos := coords.RegionOf(c)
	if !rs.index.Has(pos) {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, c)
	}

	// под блокировкой кеша читаются только сырые байты записи
	var entry region.Entry
	err := rs.handles.Use(pos, rs.openRegion, func(f *region.File) error {
		var err error
		entry, err = f.LoadEntry(uint8(local.X), uint8(local.Z))
		return err
	})
	if err != nil {
		return nil, classify(c, err)
	}

	doc, err := decodeEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptChunk, c, err)
	}
	return NewChunk(doc), nil
}

func classify(c coords.ChunkInWorld, err error) error {
	if errors.Is(err, region.ErrEntryNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrChunkNotFound, c)
	}
	return fmt.Errorf("%w: %s: %w", ErrCorruptChunk, c, err)
}

func decodeEntry(entry region.Entry) (*nbtdoc.Document, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return nbtdoc.Parse(rc)
}

// GetChunkMtime возвращает время записи чанка. Файл региона открывается
// напрямую, мимо кеша.
func (rs *Regionset) GetChunkMtime(c coords.ChunkInWorld) (time.Time, bool) {
	local, pos := coords.RegionOf(c)
	if !rs.index.Has(pos) {
		return time.Time{}, false
	}

	f, err := rs.openRegion(pos)
	if err != nil {
		rs.logger.Warn("⚠️ %s: открытие %s: %v", rs.dir, pos, err)
		return time.Time{}, false
	}
	defer f.Close()

	ts, ok := f.EntryTimestamp(uint8(local.X), uint8(local.Z))
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(ts), 0), true
}

// Chunks перечисляет все чанки, присутствующие в файлах регионов, в порядке
// регионов (Index.Positions), затем z, затем x. Кеш не используется.
func (rs *Regionset) Chunks() iter.Seq[ChunkStamp] {
	return func(yield func(ChunkStamp) bool) {
		for _, pos := range rs.index.Positions() {
			f, err := rs.openRegion(pos)
			if err != nil {
				rs.logger.Warn("⚠️ %s: открытие %s: %v", rs.dir, pos, err)
				continue
			}

			for z := 0; z < region.Edge; z++ {
				for x := 0; x < region.Edge; x++ {
					ts, ok := f.EntryTimestamp(uint8(x), uint8(z))
					if !ok {
						continue
					}
					stamp := ChunkStamp{
						Pos:   coords.JoinAtRegion(coords.ChunkInRegion{X: x, Z: z}, pos.InWorld()),
						Mtime: time.Unix(int64(ts), 0),
					}
					if !yield(stamp) {
						f.Close()
						return
					}
				}
			}
			f.Close()
		}
	}
}

// Close закрывает все открытые файлы регионов.
func (rs *Regionset) Close() error {
	if rs.exporter != nil {
		rs.exporter.Remove(rs.dir)
	}
	return rs.handles.Close()
}
