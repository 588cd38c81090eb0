// Package nbttest кодирует простые деревья в NBT для тестовых данных.
package nbttest

import (
	"bytes"
	"fmt"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
)

// Compound - составной тег. Значения: int8, int16, int32, int64, float32,
// float64, string, []byte, []int32, []int64 и вложенные Compound.
type Compound map[string]interface{}

// Encode кодирует корневой compound с пустым именем.
func Encode(root Compound) []byte {
	data, err := nbt.Marshal(root)
	if err != nil {
		panic(fmt.Sprintf("nbttest: кодирование: %v", err))
	}
	return data
}

// EncodeGzip кодирует и сжимает gzip, как level.dat.
func EncodeGzip(root Compound) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(Encode(root)); err != nil {
		panic(fmt.Sprintf("nbttest: gzip: %v", err))
	}
	if err := w.Close(); err != nil {
		panic(fmt.Sprintf("nbttest: gzip: %v", err))
	}
	return buf.Bytes()
}
