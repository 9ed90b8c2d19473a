package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// ParseCSVSignal flattens every numeric cell of a headerless CSV payload in
// row-major order. Blank and non-numeric cells (such as a header row) are
// skipped; a payload without a single numeric cell is ErrInvalidCSV.
func ParseCSVSignal(data []byte) ([]float64, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	var signal []float64
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCSV, err)
		}
		for _, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			signal = append(signal, v)
		}
	}

	if len(signal) == 0 {
		return nil, domain.ErrInvalidCSV
	}
	return signal, nil
}
