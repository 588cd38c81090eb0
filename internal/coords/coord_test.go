package coords

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizes(t *testing.T) {
	assert.Equal(t, Widths{}, Size[Block]())
	assert.Equal(t, Widths{X: 4, Y: 4, Z: 4}, Size[Section]())
	assert.Equal(t, Widths{X: 4, Y: 8, Z: 4}, Size[Chunk]())
	assert.Equal(t, Widths{X: 9, Y: 8, Z: 9}, Size[Region]())
}

func TestRanksAreOrdered(t *testing.T) {
	levels := []Level{Block{}, Section{}, Chunk{}, Region{}, World{}}
	for i, l := range levels {
		assert.Equal(t, i, l.Rank(), l.Name())
	}
}

func TestSplitBlockAtChunk(t *testing.T) {
	cases := []struct {
		name  string
		in    BlockInWorld
		local BlockInChunk
		chunk ChunkInWorld
	}{
		{"положительные", BlockInWorld{X: 45, Y: 64, Z: -20}, BlockInChunk{X: 13, Y: 64, Z: 12}, ChunkInWorld{X: 2, Y: 0, Z: -2}},
		{"отрицательные", BlockInWorld{X: -1, Y: 63, Z: -2}, BlockInChunk{X: 15, Y: 63, Z: 14}, ChunkInWorld{X: -1, Y: 0, Z: -1}},
		{"граница", BlockInWorld{X: 31, Y: 79, Z: 31}, BlockInChunk{X: 15, Y: 79, Z: 15}, ChunkInWorld{X: 1, Y: 0, Z: 1}},
		{"-16", BlockInWorld{X: -16, Y: 0, Z: -17}, BlockInChunk{X: 0, Y: 0, Z: 15}, ChunkInWorld{X: -1, Y: 0, Z: -2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			local, chunk := SplitAtChunk(tc.in)
			assert.Equal(t, tc.local, local)
			assert.Equal(t, tc.chunk, chunk)
			assert.Equal(t, tc.in, JoinAtChunk(local, chunk))
		})
	}
}

func TestRegionOf(t *testing.T) {
	_, r := RegionOf(ChunkInWorld{X: 30, Y: 4, Z: -3})
	assert.Equal(t, RegionPos{X: 0, Z: -1}, r)

	local, r := RegionOf(ChunkInWorld{X: 70, Y: 16, Z: -30})
	assert.Equal(t, RegionPos{X: 2, Z: -1}, r)
	assert.Equal(t, ChunkInRegion{X: 6, Y: 0, Z: 2}, local)
	assert.Equal(t, ChunkInWorld{X: 70, Y: 16, Z: -30}, JoinAtRegion(local, RegionInWorld{X: 2, Y: 16, Z: -1}))
}

func TestSplitBlockAtSection(t *testing.T) {
	local, section := SplitAtSection(BlockInChunk{X: 5, Y: 68, Z: 0})
	assert.Equal(t, BlockInSection{X: 5, Y: 4, Z: 0}, local)
	assert.Equal(t, SectionInChunk{X: 0, Y: 4, Z: 0}, section)
}

func TestChunkOfBlock(t *testing.T) {
	local, chunk := ChunkOfBlock(BlockInWorld{X: 5, Y: 68, Z: 0})
	assert.Equal(t, BlockInChunk{X: 5, Y: 68, Z: 0}, local)
	assert.Equal(t, ChunkInWorld{}, chunk)
}

func TestJoinThroughAllLevels(t *testing.T) {
	b := BlockInSection{X: 1, Y: 2, Z: 3}
	s := SectionInChunk{X: 0, Y: 5, Z: 0}
	c := ChunkInRegion{X: 31, Y: 0, Z: 7}
	r := RegionInWorld{X: -2, Y: 0, Z: 3}

	inWorld := JoinAtRegion(JoinAtChunk(JoinAtSection(b, s), c), r)
	assert.Equal(t, BlockInWorld{X: 1 + 31*16 - 2*512, Y: 2 + 5*16, Z: 3 + 7*16 + 3*512}, inWorld)

	// та же позиция, собранная в другом порядке
	assert.Equal(t, inWorld, JoinAtSection(b, JoinAtChunk(s, JoinAtRegion(c, r))))
}

// Законы split(join(a, b)) == (a, b) и join(split(c)) == c на случайных данных.
func TestSplitJoinLaws(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := func() int { return rng.Intn(1<<20) - 1<<19 }

	for i := 0; i < 2000; i++ {
		bw := BlockInWorld{X: n(), Y: n(), Z: n()}

		lo, hi := SplitAtSection(bw)
		require.Equal(t, bw, JoinAtSection(lo, hi))
		lc, hc := SplitAtChunk(bw)
		require.Equal(t, bw, JoinAtChunk(lc, hc))
		lr, hr := SplitAtRegion(bw)
		require.Equal(t, bw, JoinAtRegion(lr, hr))

		sw := SectionInWorld{X: n(), Y: n(), Z: n()}
		ls, hs := SplitAtChunk(sw)
		require.Equal(t, sw, JoinAtChunk(ls, hs))
		lsr, hsr := SplitAtRegion(sw)
		require.Equal(t, sw, JoinAtRegion(lsr, hsr))

		cw := ChunkInWorld{X: n(), Y: n(), Z: n()}
		lcr, hcr := SplitAtRegion(cw)
		require.Equal(t, cw, JoinAtRegion(lcr, hcr))

		// обратное направление: нормализованные части переживают join+split
		a := BlockInChunk{X: rng.Intn(16), Y: rng.Intn(256), Z: rng.Intn(16)}
		b := ChunkInWorld{X: n(), Y: 0, Z: n()}
		ga, gb := SplitAtChunk(JoinAtChunk(a, b))
		require.Equal(t, a, ga)
		require.Equal(t, b, gb)

		ar := ChunkInRegion{X: rng.Intn(32), Y: 0, Z: rng.Intn(32)}
		br := RegionInWorld{X: n(), Y: n(), Z: n()}
		gar, gbr := SplitAtRegion(JoinAtRegion(ar, br))
		require.Equal(t, ar, gar)
		require.Equal(t, br, gbr)
	}
}

func TestSplitOffsetsAreNonNegative(t *testing.T) {
	for x := -100; x < 100; x++ {
		local, _ := SplitAtChunk(BlockInWorld{X: x, Y: x, Z: x})
		assert.GreaterOrEqual(t, local.X, 0)
		assert.Less(t, local.X, 16)
		assert.GreaterOrEqual(t, local.Z, 0)
		assert.Less(t, local.Z, 16)
	}
}

func TestCoordString(t *testing.T) {
	assert.Equal(t, "Block@Chunk(13,64,12)", BlockInChunk{X: 13, Y: 64, Z: 12}.String())
	assert.Equal(t, "Chunk@World(-1,0,-1)", ChunkInWorld{X: -1, Z: -1}.String())
	assert.Equal(t, "r(3,-5)", RegionPos{X: 3, Z: -5}.String())
}
