package world

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/annel0/mcworld/internal/cache"
	"github.com/annel0/mcworld/internal/logging"
	"github.com/annel0/mcworld/internal/nbtdoc"
	"github.com/annel0/mcworld/internal/region"
)

// LevelFile - имя корневого файла мира.
const LevelFile = "level.dat"

var (
	ErrWorldNotFound = errors.New("world: каталог мира не найден")
	ErrBadLevelData  = errors.New("world: не удалось прочитать level.dat")
)

// Options настраивает открытие мира и его измерений.
type Options struct {
	// CacheCapacity - предел открытых файлов регионов на измерение,
	// <= 0 означает cache.DefaultCapacity.
	CacheCapacity int

	// SkipBrokenRegionsets пропускает измерения, которые не удалось открыть,
	// вместо отказа открыть мир целиком.
	SkipBrokenRegionsets bool

	// Exporter, если задан, получает метрики кешей всех измерений.
	Exporter *cache.Exporter
}

// World - сохранённый мир: level.dat и набор измерений.
type World struct {
	root       string
	level      *nbtdoc.Document
	regionsets []*Regionset
	logger     *logging.Logger
}

// Open открывает мир в каталоге root на диске.
func Open(root string, opts Options) (*World, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, root)
	}

	w, err := OpenFS(os.DirFS(root), opts)
	if err != nil {
		return nil, err
	}
	w.root = root
	return w, nil
}

// OpenFS открывает мир, корень которого - корень fsys.
func OpenFS(fsys fs.FS, opts Options) (*World, error) {
	logger := logging.GetWorldLogger()

	level, err := readLevel(fsys)
	if err != nil {
		return nil, err
	}

	dirs, err := regionDirs(fsys)
	if err != nil {
		return nil, err
	}

	w := &World{root: ".", level: level, logger: logger}
	for _, dir := range dirs {
		rs, err := NewRegionset(fsys, dir, opts)
		if err != nil {
			if opts.SkipBrokenRegionsets {
				logger.Warn("⚠️ Пропускаем измерение %s: %v", dir, err)
				continue
			}
			w.Close()
			return nil, fmt.Errorf("открытие измерения %s: %w", dir, err)
		}
		w.regionsets = append(w.regionsets, rs)
	}

	logger.Info("🌍 Мир %q открыт: %d измерений", w.Name(), len(w.regionsets))
	return w, nil
}

func readLevel(fsys fs.FS) (*nbtdoc.Document, error) {
	f, err := fsys.Open(LevelFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLevelData, err)
	}
	defer f.Close()

	doc, err := nbtdoc.ParseGzip(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLevelData, err)
	}
	return doc, nil
}

// regionDirs находит каталоги с файлами регионов: непосредственные
// подкаталоги корня и их подкаталоги region (DIM-1/region).
func regionDirs(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorldNotFound, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if region.HasRegionFiles(fsys, name) {
			dirs = append(dirs, name)
		}
		if nested := path.Join(name, "region"); region.HasRegionFiles(fsys, nested) {
			dirs = append(dirs, nested)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Root возвращает путь к миру на диске ("." для OpenFS).
func (w *World) Root() string {
	return w.root
}

// Level возвращает разобранный level.dat.
func (w *World) Level() *nbtdoc.Document {
	return w.level
}

// Name возвращает Data/LevelName или пустую строку.
func (w *World) Name() string {
	name, err := w.level.String("Data/LevelName")
	if err != nil {
		return ""
	}
	return name
}

// Regionsets возвращает измерения в порядке каталогов.
func (w *World) Regionsets() []*Regionset {
	return append([]*Regionset(nil), w.regionsets...)
}

// Regionset возвращает измерение по индексу.
func (w *World) Regionset(i int) (*Regionset, bool) {
	if i < 0 || i >= len(w.regionsets) {
		return nil, false
	}
	return w.regionsets[i], true
}

// RegionsetByType возвращает первое измерение типа t.
func (w *World) RegionsetByType(t string) (*Regionset, bool) {
	for _, rs := range w.regionsets {
		if rs.Type() == t {
			return rs, true
		}
	}
	return nil, false
}

// Close закрывает все измерения.
func (w *World) Close() error {
	var errs []error
	for _, rs := range w.regionsets {
		if err := rs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
