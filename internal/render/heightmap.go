// Package render строит изображения по данным мира.
package render

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/region"
	"github.com/annel0/mcworld/internal/world"
)

// RegionBlocks - ширина региона в колонках блоков.
const RegionBlocks = region.Edge * 16

// ChunkSource отдаёт чанки по координате в мире; *world.Regionset подходит.
type ChunkSource interface {
	GetChunk(c coords.ChunkInWorld) (*world.Chunk, bool)
}

// RegionHeightmap рисует карту высот региона pos: один пиксель на колонку,
// яркость 255 - высота. Отсутствующие чанки остаются чёрными.
// Возвращает изображение и число нарисованных чанков.
func RegionHeightmap(src ChunkSource, pos coords.RegionPos) (*image.Gray, int) {
	img := image.NewGray(image.Rect(0, 0, RegionBlocks, RegionBlocks))
	drawn := 0

	for cz := 0; cz < region.Edge; cz++ {
		for cx := 0; cx < region.Edge; cx++ {
			inRegion := coords.ChunkInRegion{X: cx, Z: cz}
			chunk, ok := src.GetChunk(coords.JoinAtRegion(inRegion, pos.InWorld()))
			if !ok {
				continue
			}
			hm, err := chunk.Heightmap()
			if err != nil {
				continue
			}

			for bz := 0; bz < 16; bz++ {
				for bx := 0; bx < 16; bx++ {
					b := coords.JoinAtChunk(coords.BlockInChunk{X: bx, Z: bz}, inRegion)
					img.SetGray(b.X, b.Z, color.Gray{Y: shade(hm.At(bx, bz))})
				}
			}
			drawn++
		}
	}
	return img, drawn
}

func shade(h int32) uint8 {
	switch {
	case h <= 0:
		return 255
	case h >= 255:
		return 0
	default:
		return uint8(255 - h)
	}
}

// MaxScale - предельный коэффициент увеличения.
const MaxScale = 8

// Scale увеличивает изображение в factor раз без сглаживания (не более MaxScale).
// factor <= 1 возвращает img как есть.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	factor = min(factor, MaxScale)
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// EncodePNG записывает изображение в формате PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
