package service

import (
	"errors"
	"testing"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

func TestParseCSVSignal(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []float64
		wantErr error
	}{
		{"single column", "0.1\n0.2\n0.3\n", []float64{0.1, 0.2, 0.3}, nil},
		{"row major", "1,2\n3,4\n", []float64{1, 2, 3, 4}, nil},
		{"header skipped", "lead_ii\n-0.5\n0.5\n", []float64{-0.5, 0.5}, nil},
		{"ragged with blanks", "1, ,2\n\n3\n", []float64{1, 2, 3}, nil},
		{"non finite dropped", "NaN,1,+Inf\n", []float64{1}, nil},
		{"no numbers", "a,b\n", nil, domain.ErrInvalidCSV},
		{"empty", "", nil, domain.ErrInvalidCSV},
		{"bad quoting", "\"1,2\n", nil, domain.ErrInvalidCSV},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCSVSignal([]byte(tc.data))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("sample %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}
