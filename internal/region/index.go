package region

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/annel0/mcworld/internal/coords"
)

const (
	fileTag = "r"
	fileExt = "mca"
)

// ParseFileName разбирает имя вида r.<x>.<z>.mca. Любое другое имя - не регион.
func ParseFileName(name string) (coords.RegionPos, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 4 || parts[0] != fileTag || parts[3] != fileExt {
		return coords.RegionPos{}, false
	}

	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return coords.RegionPos{}, false
	}
	z, err := strconv.Atoi(parts[2])
	if err != nil {
		return coords.RegionPos{}, false
	}

	return coords.RegionPos{X: x, Z: z}, true
}

// FileName возвращает имя файла региона для позиции.
func FileName(pos coords.RegionPos) string {
	return fmt.Sprintf("%s.%d.%d.%s", fileTag, pos.X, pos.Z, fileExt)
}

// Index - множество регионов, найденных на диске. Используется только
// для проверки существования.
type Index map[coords.RegionPos]struct{}

// Has проверяет, есть ли файл региона на диске.
func (idx Index) Has(pos coords.RegionPos) bool {
	_, ok := idx[pos]
	return ok
}

// Len возвращает количество регионов.
func (idx Index) Len() int {
	return len(idx)
}

// Positions возвращает позиции, отсортированные по X, затем по Z.
func (idx Index) Positions() []coords.RegionPos {
	out := make([]coords.RegionPos, 0, len(idx))
	for pos := range idx {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Discover строит индекс по содержимому каталога dir.
func Discover(fsys fs.FS, dir string) (Index, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога регионов %s: %w", dir, err)
	}

	idx := make(Index)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pos, ok := ParseFileName(entry.Name()); ok {
			idx[pos] = struct{}{}
		}
	}
	return idx, nil
}

// HasRegionFiles сообщает, есть ли в каталоге хотя бы один файл региона.
// Ошибка чтения каталога трактуется как отсутствие файлов.
func HasRegionFiles(fsys fs.FS, dir string) bool {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := ParseFileName(entry.Name()); ok {
			return true
		}
	}
	return false
}
