package converter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// row is a CSV record with access to fields by column name.
type row struct {
	line   int
	fields []string
	cols   map[string]int
}

// readRows reads a CSV file with a header line and at least one record.
// Column names are matched ignoring case, spaces and punctuation, so
// "Buy / Sell" is "buysell".
func readRows(r io.Reader, required ...string) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[columnName(h)] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var rows []row
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(fields) {
			continue
		}
		rows = append(rows, row{line: line, fields: fields, cols: cols})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no records after the header")
	}
	return rows, nil
}

func columnName(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// str returns the trimmed value of col, empty if the column is absent.
func (r row) str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// dec parses col as a decimal. Empty values are zero.
func (r row) dec(col string) (decimal.Decimal, error) {
	s := r.str(col)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %s: invalid number %q", col, s)
	}
	return d, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// date parses col as a timestamp or a date.
func (r row) date(col string) (time.Time, error) {
	s := r.str(col)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: invalid date %q", col, s)
}
