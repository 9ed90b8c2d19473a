package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        []float64
		wantDropped int
	}{
		{"mixed tokens", "0.1, abc, 0.2,, 0.3", []float64{0.1, 0.2, 0.3}, 2},
		{"clean", "1,-2,3.5", []float64{1, -2, 3.5}, 0},
		{"non finite", "NaN,1,Inf", []float64{1}, 2},
		{"blank", "   ", nil, 0},
		{"only garbage", "x,y", nil, 2},
		{"trailing comma", "1,2,", []float64{1, 2}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, dropped := ParseSignal(tc.raw)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantDropped, dropped)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := fingerprint([]float64{0.1, 0.2}, "ana@example.com")
	assert.Equal(t, a, fingerprint([]float64{0.1, 0.2}, "ana@example.com"))
	assert.NotEqual(t, a, fingerprint([]float64{0.2, 0.1}, "ana@example.com"))
	assert.NotEqual(t, a, fingerprint([]float64{0.1, 0.2}, "bo@example.com"))
}
