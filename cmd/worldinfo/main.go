package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/logging"
	"github.com/annel0/mcworld/internal/render"
	"github.com/annel0/mcworld/internal/world"
)

type options struct {
	dim   string
	x, z  int
	limit int
	out   string
	scale int
}

func main() {
	var (
		worldPath = flag.String("world", ".", "каталог мира (с level.dat)")
		command   = flag.String("cmd", "info", "команда: info, chunk, heightmap, chunks, render")
		dim       = flag.String("dim", "overworld", "измерение: тип (overworld, nether, end) или индекс")
		x         = flag.Int("x", 0, "координата X чанка (для render - региона)")
		z         = flag.Int("z", 0, "координата Z чанка (для render - региона)")
		limit     = flag.Int("limit", 50, "сколько чанков выводить в chunks")
		out       = flag.String("out", "heightmap.png", "файл для render")
		scale     = flag.Int("scale", 1, "увеличение для render (1..8)")
		verbose   = flag.Bool("v", false, "подробный лог")
	)
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logging.Init(logging.Config{Level: level}); err != nil {
		fail(err)
	}

	w, err := world.Open(*worldPath, world.Options{SkipBrokenRegionsets: true})
	if err != nil {
		fail(err)
	}
	defer w.Close()

	opts := options{dim: *dim, x: *x, z: *z, limit: *limit, out: *out, scale: *scale}
	if err := run(os.Stdout, w, *command, opts); err != nil {
		w.Close()
		fail(err)
	}
}

func fail(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "❌ %v\n", err)
	os.Exit(1)
}

func run(out io.Writer, w *world.World, command string, opts options) error {
	switch command {
	case "info":
		return showInfo(out, w)
	}

	rs, err := pickRegionset(w, opts.dim)
	if err != nil {
		return err
	}

	switch command {
	case "chunk":
		return showChunk(out, rs, coords.ChunkInWorld{X: opts.x, Z: opts.z})
	case "heightmap":
		return showHeightmap(out, rs, coords.ChunkInWorld{X: opts.x, Z: opts.z})
	case "chunks":
		return listChunks(out, rs, opts.limit)
	case "render":
		return renderRegion(out, rs, coords.RegionPos{X: opts.x, Z: opts.z}, opts.out, opts.scale)
	default:
		return fmt.Errorf("неизвестная команда %q", command)
	}
}

func pickRegionset(w *world.World, dim string) (*world.Regionset, error) {
	if i, err := strconv.Atoi(dim); err == nil {
		if rs, ok := w.Regionset(i); ok {
			return rs, nil
		}
		return nil, fmt.Errorf("нет измерения с индексом %d", i)
	}
	if rs, ok := w.RegionsetByType(dim); ok {
		return rs, nil
	}
	return nil, fmt.Errorf("нет измерения %q", dim)
}

func showInfo(out io.Writer, w *world.World) error {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintf(out, "🌍 %s\n", w.Name())
	fmt.Fprintf(out, "каталог: %s\n", w.Root())

	for i, rs := range w.Regionsets() {
		color.New(color.FgGreen).Fprintf(out, "[%d] %-10s", i, rs.Type())
		fmt.Fprintf(out, " %-14s %d регионов\n", rs.Dir(), rs.Index().Len())
	}
	return nil
}

func showChunk(out io.Writer, rs *world.Regionset, pos coords.ChunkInWorld) error {
	chunk, err := rs.LoadChunk(pos)
	if err != nil {
		return err
	}

	local, region := coords.RegionOf(pos)
	color.New(color.FgCyan).Fprintf(out, "чанк %s\n", pos)
	fmt.Fprintf(out, "регион: %s, ячейка (%d,%d)\n", region, local.X, local.Z)
	if mtime, ok := rs.GetChunkMtime(pos); ok {
		fmt.Fprintf(out, "изменён: %s\n", mtime.UTC().Format("2006-01-02 15:04:05"))
	}

	hm, err := chunk.Heightmap()
	if err != nil {
		color.New(color.FgYellow).Fprintf(out, "карта высот: %v\n", err)
		return nil
	}
	lo, hi := hm.At(0, 0), hm.At(0, 0)
	for _, v := range hm.Values() {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	fmt.Fprintf(out, "высоты: %d..%d\n", lo, hi)
	return nil
}

func showHeightmap(out io.Writer, rs *world.Regionset, pos coords.ChunkInWorld) error {
	chunk, err := rs.LoadChunk(pos)
	if err != nil {
		return err
	}
	hm, err := chunk.Heightmap()
	if err != nil {
		return err
	}

	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			fmt.Fprintf(out, "%4d", hm.At(x, z))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func listChunks(out io.Writer, rs *world.Regionset, limit int) error {
	n := 0
	for stamp := range rs.Chunks() {
		if n == limit {
			color.New(color.FgYellow).Fprintf(out, "... (показаны первые %d)\n", limit)
			break
		}
		fmt.Fprintf(out, "%6d %6d  %s\n", stamp.Pos.X, stamp.Pos.Z, stamp.Mtime.UTC().Format("2006-01-02 15:04:05"))
		n++
	}
	return nil
}

func renderRegion(out io.Writer, rs *world.Regionset, pos coords.RegionPos, path string, scale int) error {
	if !rs.Index().Has(pos) {
		return fmt.Errorf("региона %s нет в %s", pos, rs.Dir())
	}

	img, drawn := render.RegionHeightmap(rs, pos)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.EncodePNG(f, render.Scale(img, scale)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "✅ %s: %d чанков → %s\n", pos, drawn, path)
	return nil
}
