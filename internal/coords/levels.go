package coords

// Level - уровень вложенности мира: Block < Section < Chunk < Region < World.
type Level interface {
	Rank() int
	Name() string
}

// Sized - уровень с конечным размером. World его не реализует, поэтому
// запросить размер World невозможно на уровне типов.
type Sized interface {
	Level
	bits() Widths
}

// Widths - накопленная ширина адреса в битах по каждой оси, начиная от блока.
type Widths struct {
	X, Y, Z uint
}

func (w Widths) sub(o Widths) Widths {
	return Widths{X: w.X - o.X, Y: w.Y - o.Y, Z: w.Z - o.Z}
}

// Block - один блок (ранг 0).
type Block struct{}

// Section - 16x16x16 блоков.
type Section struct{}

// Chunk - вертикальный столб из 16 секций.
type Chunk struct{}

// Region - 32x32 чанка, один файл на диске.
type Region struct{}

// World - неограниченный внешний уровень.
type World struct{}

func (Block) Rank() int   { return 0 }
func (Section) Rank() int { return 1 }
func (Chunk) Rank() int   { return 2 }
func (Region) Rank() int  { return 3 }
func (World) Rank() int   { return 4 }

func (Block) Name() string   { return "Block" }
func (Section) Name() string { return "Section" }
func (Chunk) Name() string   { return "Chunk" }
func (Region) Name() string  { return "Region" }
func (World) Name() string   { return "World" }

// Прирост по уровням: Section +(4,4,4), Chunk +(0,4,0), Region +(5,0,5).
func (Block) bits() Widths   { return Widths{} }
func (Section) bits() Widths { return Widths{X: 4, Y: 4, Z: 4} }
func (Chunk) bits() Widths   { return Widths{X: 4, Y: 8, Z: 4} }
func (Region) bits() Widths  { return Widths{X: 9, Y: 8, Z: 9} }

// Size возвращает накопленную ширину уровня. Для World не компилируется.
func Size[L Sized]() Widths {
	var l L
	return l.bits()
}

// Ограничения для split: уровни строго ниже и строго выше точки разбиения.
type (
	BelowSection interface {
		Block
		Sized
	}
	AboveSection interface {
		Chunk | Region | World
		Level
	}

	BelowChunk interface {
		Block | Section
		Sized
	}
	AboveChunk interface {
		Region | World
		Level
	}

	BelowRegion interface {
		Block | Section | Chunk
		Sized
	}
	AboveRegion interface {
		World
		Level
	}
)
