// Package vector implements the fixed-width binary encoding shared between
// embedding generation and the sqlite-vec index. The on-disk format is the
// raw little-endian float32 sequence sqlite-vec expects for FLOAT[N] columns:
// 4 bytes per element, no header. Any drift here corrupts distances silently
// rather than erroring, so both directions are covered by round-trip tests.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Serialize 将向量编码为小端float32字节序列
func Serialize(vec []float32) ([]byte, error) {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("non-finite value at index %d", i)
		}
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// Deserialize 是Serialize的逆操作
func Deserialize(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// CheckDimension 校验向量维度
func CheckDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("vector has %d dimensions, want %d", len(vec), want)
	}
	return nil
}
