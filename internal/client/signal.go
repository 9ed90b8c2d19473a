package client

import (
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// ParseSignal reads comma-separated samples. Empty, non-numeric and non-finite
// tokens are dropped silently; dropped reports how many.
func ParseSignal(raw string) (signal []float64, dropped int) {
	if strings.TrimSpace(raw) == "" {
		return nil, 0
	}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			dropped++
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			dropped++
			continue
		}
		signal = append(signal, v)
	}
	return signal, dropped
}

func copySignal(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// fingerprint identifies a payload for in-flight dedup.
func fingerprint(signal []float64, parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	var buf [8]byte
	for _, v := range signal {
		bits := math.Float64bits(v)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
