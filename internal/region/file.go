package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	// Edge - количество чанков по стороне региона.
	Edge       = 32
	SectorSize = 4096

	headerSize      = 2 * SectorSize
	entryHeaderSize = 5 // длина (u32) + схема сжатия (u8)
)

// Compression - схема сжатия записи чанка.
type Compression byte

const (
	CompressionGzip Compression = 1
	CompressionZlib Compression = 2
	CompressionNone Compression = 3

	// Старший бит означает, что данные лежат во внешнем файле .mcc.
	compressionExternal Compression = 0x80
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionNone:
		return "none"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

var (
	ErrEntryNotFound          = errors.New("region: запись чанка отсутствует")
	ErrOutOfRange             = errors.New("region: смещение чанка вне региона")
	ErrCorruptHeader          = errors.New("region: повреждён заголовок файла")
	ErrCorruptEntry           = errors.New("region: повреждена запись чанка")
	ErrUnsupportedCompression = errors.New("region: неподдерживаемая схема сжатия")
)

// location - слово таблицы смещений: 3 байта номера сектора и 1 байт их количества.
type location uint32

func (l location) present() bool {
	return l != 0
}

func (l location) sectors() (index, count uint32) {
	return uint32(l >> 8), uint32(l & 0xff)
}

// File - открытый файл региона. Читает записи через ReadAt, поэтому
// безопасен для одновременного чтения разными горутинами.
type File struct {
	r io.ReaderAt
	c io.Closer

	locations  [Edge * Edge]location
	timestamps [Edge * Edge]uint32

	closeOnce sync.Once
	closeErr  error
}

// Open читает заголовок региона из f. При ошибке f закрывается.
func Open(f fs.File) (*File, error) {
	ra, ok := f.(io.ReaderAt)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("чтение файла региона: %w", err)
		}
		ra = bytes.NewReader(data)
	}

	rf, err := NewFile(ra, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return rf, nil
}

// NewFile читает заголовок региона из r. Пустой файл - регион без записей.
func NewFile(r io.ReaderAt, c io.Closer) (*File, error) {
	rf := &File{r: r, c: c}

	var header [headerSize]byte
	n, err := r.ReadAt(header[:], 0)
	switch {
	case n == 0 && (err == io.EOF || err == nil):
		return rf, nil
	case n < headerSize:
		return nil, fmt.Errorf("%w: прочитано %d байт из %d", ErrCorruptHeader, n, headerSize)
	}

	for i := range rf.locations {
		rf.locations[i] = location(binary.BigEndian.Uint32(header[i*4:]))
		rf.timestamps[i] = binary.BigEndian.Uint32(header[SectorSize+i*4:])
	}
	return rf, nil
}

func slot(x, z uint8) (int, error) {
	if x >= Edge || z >= Edge {
		return 0, fmt.Errorf("%w: (%d,%d)", ErrOutOfRange, x, z)
	}
	return int(x) + int(z)*Edge, nil
}

// Has сообщает, есть ли в таблице смещений запись для (x, z).
func (f *File) Has(x, z uint8) bool {
	i, err := slot(x, z)
	return err == nil && f.locations[i].present()
}

// EntryTimestamp возвращает время последней записи чанка в секундах Unix.
// Запись с нулевой длиной считается отсутствующей, как и в LoadEntry.
func (f *File) EntryTimestamp(x, z uint8) (uint32, bool) {
	i, err := slot(x, z)
	if err != nil || !f.stored(i) {
		return 0, false
	}
	return f.timestamps[i], true
}

// stored проверяет, что слот указывает на сектор с ненулевой длиной записи.
func (f *File) stored(i int) bool {
	loc := f.locations[i]
	if !loc.present() {
		return false
	}
	index, count := loc.sectors()
	if index < 2 || count == 0 {
		return false
	}
	var length [4]byte
	if err := readAt(f.r, length[:], int64(index)*SectorSize); err != nil {
		return false
	}
	return binary.BigEndian.Uint32(length[:]) != 0
}

// LoadEntry читает сжатые данные чанка (x, z), x и z в [0, 32).
func (f *File) LoadEntry(x, z uint8) (Entry, error) {
	i, err := slot(x, z)
	if err != nil {
		return Entry{}, err
	}

	loc := f.locations[i]
	if !loc.present() {
		return Entry{}, ErrEntryNotFound
	}

	index, count := loc.sectors()
	if index < 2 || count == 0 {
		return Entry{}, fmt.Errorf("%w: сектор %d, количество %d", ErrCorruptEntry, index, count)
	}

	offset := int64(index) * SectorSize
	var hdr [entryHeaderSize]byte
	if err := readAt(f.r, hdr[:], offset); err != nil {
		return Entry{}, fmt.Errorf("%w: заголовок записи: %v", ErrCorruptEntry, err)
	}

	length := binary.BigEndian.Uint32(hdr[:4])
	if length == 0 {
		return Entry{}, ErrEntryNotFound
	}
	if int64(length) > int64(count)*SectorSize-4 {
		return Entry{}, fmt.Errorf("%w: длина %d больше выделенных секторов (%d)", ErrCorruptEntry, length, count)
	}

	compression := Compression(hdr[4])
	if compression&compressionExternal != 0 {
		return Entry{}, fmt.Errorf("%w: внешний файл .mcc", ErrUnsupportedCompression)
	}

	data := make([]byte, length-1)
	if err := readAt(f.r, data, offset+entryHeaderSize); err != nil {
		return Entry{}, fmt.Errorf("%w: данные записи: %v", ErrCorruptEntry, err)
	}

	return Entry{Compression: compression, Data: data}, nil
}

// readAt допускает io.EOF, если буфер заполнен целиком.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Close закрывает файл. Повторный вызов безопасен.
func (f *File) Close() error {
	f.closeOnce.Do(func() {
		if f.c != nil {
			f.closeErr = f.c.Close()
		}
	})
	return f.closeErr
}

// Entry - сжатые данные одного чанка.
type Entry struct {
	Compression Compression
	Data        []byte
}

// Open возвращает поток с распакованными данными записи.
func (e Entry) Open() (io.ReadCloser, error) {
	src := bytes.NewReader(e.Data)
	switch e.Compression {
	case CompressionGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case CompressionZlib:
		return zlib.NewReader(src)
	case CompressionNone:
		return io.NopCloser(src), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, e.Compression)
	}
}
