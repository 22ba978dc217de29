// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package catalog

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeVector decodes a base64 little-endian float32 embedding as produced
// by the ETL embedding exporter.
func DecodeVector(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode vector base64: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("decode vector: %d bytes is not a float32 array", len(raw))
	}

	vec := make([]float32, len(raw)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// EncodeVector is the inverse of DecodeVector. The engine never writes
// reference data; this exists for tests and fixture generation.
func EncodeVector(vec []float32) string {
	raw := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}
