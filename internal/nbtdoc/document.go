// Package nbtdoc разбирает NBT-документы (level.dat, данные чанков) в дерево
// с доступом по пути ключей.
package nbtdoc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
)

var (
	ErrPathNotFound = errors.New("nbtdoc: путь не найден")
	ErrTypeMismatch = errors.New("nbtdoc: неверный тип значения")
	ErrTooLarge     = errors.New("nbtdoc: документ больше MaxDocumentSize")
)

// Document - разобранный составной (compound) тег.
type Document struct {
	root map[string]interface{}
}

// MaxDocumentSize ограничивает несжатый размер документа, читаемого Parse и
// ParseGzip. Сжатая запись чанка не больше 255 секторов по 4 КиБ.
const MaxDocumentSize = 32 << 20

// Parse читает несжатый NBT-поток целиком, но не больше MaxDocumentSize байт.
func Parse(r io.Reader) (*Document, error) {
	return parseLimited(r, MaxDocumentSize)
}

func parseLimited(r io.Reader, limit int64) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("чтение NBT: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: больше %d байт", ErrTooLarge, limit)
	}
	return ParseBytes(data)
}

// ParseGzip читает NBT-поток в обёртке gzip.
func ParseGzip(r io.Reader) (*Document, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("распаковка gzip: %w", err)
	}
	defer zr.Close()
	return Parse(zr)
}

// ParseBytes разбирает NBT из буфера.
func ParseBytes(data []byte) (*Document, error) {
	root := make(map[string]interface{})
	if err := nbt.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("разбор NBT: %w", err)
	}
	return &Document{root: root}, nil
}

// FromMap оборачивает готовое дерево.
func FromMap(root map[string]interface{}) *Document {
	if root == nil {
		root = make(map[string]interface{})
	}
	return &Document{root: root}
}

// Keys возвращает ключи верхнего уровня.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.root))
	for k := range d.root {
		keys = append(keys, k)
	}
	return keys
}

// Lookup ищет значение по пути вида "Level/HeightMap".
func (d *Document) Lookup(path string) (interface{}, bool) {
	var cur interface{} = d.root
	for _, key := range strings.Split(strings.Trim(path, "/"), "/") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (d *Document) get(path string) (interface{}, error) {
	v, ok := d.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return v, nil
}

func mismatch(path string, v interface{}) error {
	return fmt.Errorf("%w: %s имеет тип %T", ErrTypeMismatch, path, v)
}

// Int возвращает целое значение любого размера (Byte, Short, Int, Long).
func (d *Document) Int(path string) (int64, error) {
	v, err := d.get(path)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	default:
		return 0, mismatch(path, v)
	}
}

// IntArray возвращает значение тега IntArray.
func (d *Document) IntArray(path string) ([]int32, error) {
	v, err := d.get(path)
	if err != nil {
		return nil, err
	}
	switch a := v.(type) {
	case []int32:
		return a, nil
	case []interface{}:
		// список Int вместо IntArray
		out := make([]int32, len(a))
		for i, e := range a {
			n, ok := e.(int32)
			if !ok {
				return nil, mismatch(path, v)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, mismatch(path, v)
	}
}

// String возвращает строковое значение.
func (d *Document) String(path string) (string, error) {
	v, err := d.get(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", mismatch(path, v)
	}
	return s, nil
}

// Sub возвращает вложенный compound как отдельный документ.
func (d *Document) Sub(path string) (*Document, error) {
	v, err := d.get(path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, mismatch(path, v)
	}
	return &Document{root: m}, nil
}
