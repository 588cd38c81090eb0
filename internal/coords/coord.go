package coords

import "fmt"

// coord - позиция клетки уровня El внутри контейнера уровня In, в единицах El.
// Тип не экспортируется: снаружи доступны только допустимые пары через алиасы
// ниже, а JoinAt*/SplitAt* принимают и выдают только допустимые пары.
type coord[El Sized, In Level] struct {
	X, Y, Z int
}

type (
	BlockInSection  = coord[Block, Section]
	BlockInChunk    = coord[Block, Chunk]
	BlockInRegion   = coord[Block, Region]
	BlockInWorld    = coord[Block, World]
	SectionInChunk  = coord[Section, Chunk]
	SectionInRegion = coord[Section, Region]
	SectionInWorld  = coord[Section, World]
	ChunkInRegion   = coord[Chunk, Region]
	ChunkInWorld    = coord[Chunk, World]
	RegionInWorld   = coord[Region, World]
)

// String возвращает запись вида Block@Chunk(13,64,12).
func (c coord[El, In]) String() string {
	var el El
	var in In
	return fmt.Sprintf("%s@%s(%d,%d,%d)", el.Name(), in.Name(), c.X, c.Y, c.Z)
}

// JoinAtSection переводит позицию a внутри секции в систему End, зная
// позицию b секции внутри End. Уровни упорядочены ограничениями типов:
// El строго ниже Section, End строго выше.
func JoinAtSection[El BelowSection, End AboveSection](a coord[El, Section], b coord[Section, End]) coord[El, End] {
	return join[El, End](a.X, a.Y, a.Z, b.X, b.Y, b.Z, Size[Section]().sub(Size[El]()))
}

// JoinAtChunk переводит позицию a внутри чанка в систему End.
func JoinAtChunk[El BelowChunk, End AboveChunk](a coord[El, Chunk], b coord[Chunk, End]) coord[El, End] {
	return join[El, End](a.X, a.Y, a.Z, b.X, b.Y, b.Z, Size[Chunk]().sub(Size[El]()))
}

// JoinAtRegion переводит позицию a внутри региона в систему End (World).
func JoinAtRegion[El BelowRegion, End AboveRegion](a coord[El, Region], b coord[Region, End]) coord[El, End] {
	return join[El, End](a.X, a.Y, a.Z, b.X, b.Y, b.Z, Size[Region]().sub(Size[El]()))
}

func join[El Sized, End Level](ax, ay, az, bx, by, bz int, s Widths) coord[El, End] {
	return coord[El, End]{
		X: ax + bx<<s.X,
		Y: ay + by<<s.Y,
		Z: az + bz<<s.Z,
	}
}

// SplitAtSection разбивает c на смещение внутри секции и позицию секции.
func SplitAtSection[El BelowSection, End AboveSection](c coord[El, End]) (coord[El, Section], coord[Section, End]) {
	var lo coord[El, Section]
	var hi coord[Section, End]
	lo.X, hi.X, lo.Y, hi.Y, lo.Z, hi.Z = split(c.X, c.Y, c.Z, Size[Section]().sub(Size[El]()))
	return lo, hi
}

// SplitAtChunk разбивает c на смещение внутри чанка и позицию чанка.
func SplitAtChunk[El BelowChunk, End AboveChunk](c coord[El, End]) (coord[El, Chunk], coord[Chunk, End]) {
	var lo coord[El, Chunk]
	var hi coord[Chunk, End]
	lo.X, hi.X, lo.Y, hi.Y, lo.Z, hi.Z = split(c.X, c.Y, c.Z, Size[Chunk]().sub(Size[El]()))
	return lo, hi
}

// SplitAtRegion разбивает c на смещение внутри региона и позицию региона.
func SplitAtRegion[El BelowRegion, End AboveRegion](c coord[El, End]) (coord[El, Region], coord[Region, End]) {
	var lo coord[El, Region]
	var hi coord[Region, End]
	lo.X, hi.X, lo.Y, hi.Y, lo.Z, hi.Z = split(c.X, c.Y, c.Z, Size[Region]().sub(Size[El]()))
	return lo, hi
}

// split использует арифметический сдвиг: -1 в чанке шириной 16 даёт 15 и чанк -1.
func split(x, y, z int, s Widths) (lx, hx, ly, hy, lz, hz int) {
	lx, hx = x&(1<<s.X-1), x>>s.X
	ly, hy = y&(1<<s.Y-1), y>>s.Y
	lz, hz = z&(1<<s.Z-1), z>>s.Z
	return
}

// RegionPos - координата файла региона внутри набора регионов.
type RegionPos struct {
	X, Z int
}

func (p RegionPos) String() string {
	return fmt.Sprintf("r(%d,%d)", p.X, p.Z)
}

// InWorld возвращает позицию региона как координату в мире.
func (p RegionPos) InWorld() RegionInWorld {
	return RegionInWorld{X: p.X, Z: p.Z}
}

// RegionOf находит регион, содержащий чанк, и смещение чанка в нём.
func RegionOf(c ChunkInWorld) (ChunkInRegion, RegionPos) {
	local, region := SplitAtRegion(c)
	return local, RegionPos{X: region.X, Z: region.Z}
}

// ChunkOfBlock находит чанк, содержащий блок, и смещение блока в нём.
func ChunkOfBlock(b BlockInWorld) (BlockInChunk, ChunkInWorld) {
	return SplitAtChunk(b)
}
