// Package regiontest собирает файлы регионов в памяти для тестов.
package regiontest

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	edge       = 32
	sectorSize = 4096
)

type entry struct {
	compression byte
	data        []byte
	mtime       uint32
}

// Builder накапливает записи чанков и выдаёт байты файла .mca.
type Builder struct {
	entries map[int]entry
}

func NewBuilder() *Builder {
	return &Builder{entries: make(map[int]entry)}
}

// Put сжимает payload через zlib и кладёт его в ячейку (x, z).
func (b *Builder) Put(x, z int, payload []byte, mtime uint32) *Builder {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(payload)
	w.Close()
	return b.PutRaw(x, z, 2, buf.Bytes(), mtime)
}

// PutGzip то же, что Put, но со сжатием gzip.
func (b *Builder) PutGzip(x, z int, payload []byte, mtime uint32) *Builder {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(payload)
	w.Close()
	return b.PutRaw(x, z, 1, buf.Bytes(), mtime)
}

// PutRaw кладёт данные как есть с указанной схемой сжатия.
func (b *Builder) PutRaw(x, z int, compression byte, data []byte, mtime uint32) *Builder {
	b.entries[x+z*edge] = entry{compression: compression, data: data, mtime: mtime}
	return b
}

// Bytes возвращает содержимое файла региона.
func (b *Builder) Bytes() []byte {
	header := make([]byte, 2*sectorSize)
	var body bytes.Buffer

	slots := make([]int, 0, len(b.entries))
	for i := range b.entries {
		slots = append(slots, i)
	}
	sort.Ints(slots)

	sector := 2
	for _, i := range slots {
		e := b.entries[i]

		var rec bytes.Buffer
		binary.Write(&rec, binary.BigEndian, uint32(len(e.data)+1))
		rec.WriteByte(e.compression)
		rec.Write(e.data)

		count := (rec.Len() + sectorSize - 1) / sectorSize
		rec.Write(make([]byte, count*sectorSize-rec.Len()))

		binary.BigEndian.PutUint32(header[i*4:], uint32(sector<<8|count))
		binary.BigEndian.PutUint32(header[sectorSize+i*4:], e.mtime)

		body.Write(rec.Bytes())
		sector += count
	}

	return append(header, body.Bytes()...)
}
