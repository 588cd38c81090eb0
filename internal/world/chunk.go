package world

import (
	"errors"
	"fmt"

	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/nbtdoc"
)

// HeightmapSize - число колонок в чанке (16x16).
const HeightmapSize = 16 * 16

var ErrBadHeightmap = errors.New("world: некорректная карта высот")

// Chunk - разобранные данные одного чанка.
type Chunk struct {
	doc *nbtdoc.Document
}

// NewChunk оборачивает документ чанка.
func NewChunk(doc *nbtdoc.Document) *Chunk {
	return &Chunk{doc: doc}
}

// Document возвращает исходный NBT-документ.
func (c *Chunk) Document() *nbtdoc.Document {
	return c.doc
}

// Position возвращает координату чанка, записанную в нём самом.
func (c *Chunk) Position() (coords.ChunkInWorld, bool) {
	x, err := c.doc.Int("Level/xPos")
	if err != nil {
		return coords.ChunkInWorld{}, false
	}
	z, err := c.doc.Int("Level/zPos")
	if err != nil {
		return coords.ChunkInWorld{}, false
	}
	return coords.ChunkInWorld{X: int(x), Z: int(z)}, true
}

// Heightmap возвращает карту высот из Level/HeightMap.
func (c *Chunk) Heightmap() (Heightmap, error) {
	data, err := c.doc.IntArray("Level/HeightMap")
	if err != nil {
		return Heightmap{}, fmt.Errorf("%w: %w", ErrBadHeightmap, err)
	}
	if len(data) != HeightmapSize {
		return Heightmap{}, fmt.Errorf("%w: %d значений вместо %d", ErrBadHeightmap, len(data), HeightmapSize)
	}
	return Heightmap{data: data}, nil
}

// Heightmap - высоты 16x16 колонок чанка, индекс x + z*16.
type Heightmap struct {
	data []int32
}

// At возвращает высоту колонки (x, z). Паникует, если x или z вне [0, 16).
func (h Heightmap) At(x, z int) int32 {
	if x < 0 || x >= 16 || z < 0 || z >= 16 {
		panic(fmt.Sprintf("world: колонка (%d, %d) вне чанка 16x16", x, z))
	}
	return h.data[x+z*16]
}

// AtBlock возвращает высоту колонки блока внутри чанка.
func (h Heightmap) AtBlock(b coords.BlockInChunk) int32 {
	return h.At(b.X, b.Z)
}

// Values возвращает копию всех 256 значений.
func (h Heightmap) Values() []int32 {
	return append([]int32(nil), h.data...)
}

// Len возвращает число значений.
func (h Heightmap) Len() int {
	return len(h.data)
}
