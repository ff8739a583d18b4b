package bulkload

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"geo-editor/model"
	"geo-editor/utils"
	"io"
	"strings"
)

// Template columns, in order.
const (
	ColCode      = "codigo"
	ColName      = "nombre"
	ColLatitude  = "latitud"
	ColLongitude = "longitud"
)

// CodeAttribute is the attribute that keeps the imported code on each point.
const CodeAttribute = "code"

var RequiredColumns = []string{ColCode, ColName, ColLatitude, ColLongitude}

var ErrInvalidCSV = errors.New("invalid csv")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CriticalError aborts the whole load; nothing is persisted.
type CriticalError struct {
	Row            int      `json:"row,omitempty"`
	Message        string   `json:"message"`
	MissingHeaders []string `json:"missing_headers,omitempty"`
}

func (e *CriticalError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

// RowError describes a skipped row. Rows are numbered as in a spreadsheet,
// the header being row 1.
type RowError struct {
	Row    int      `json:"row"`
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// Result is the outcome of parsing a file.
type Result struct {
	Points []model.Point `json:"-"`
	Errors []RowError    `json:"errors"`
}

// Template returns a CSV with the header and one example row.
func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(RequiredColumns)
	_ = w.Write([]string{"UBI-001", "Punto de referencia", "-12.0464", "-77.0428"})
	w.Flush()
	return buf.Bytes()
}

// Parse reads a CSV upload. existing holds the project's current points so
// that codes already in use are rejected. newID assigns point ids.
func Parse(r io.Reader, existing []model.Point, newID func() string) (*Result, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &CriticalError{Message: "csv has no header"}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	idx := mapHeaderIndices(header)
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &CriticalError{Message: "required header columns are missing", MissingHeaders: missing}
	}

	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		if code, ok := p.Attributes[CodeAttribute].(string); ok && code != "" {
			taken[code] = true
		}
	}

	res := &Result{Points: []model.Point{}, Errors: []RowError{}}
	seen := make(map[string]bool)
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidCSV, row, err)
		}

		field := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		var empty []string
		for _, col := range RequiredColumns {
			if field(col) == "" {
				empty = append(empty, col)
			}
		}
		if len(empty) > 0 {
			res.Errors = append(res.Errors, RowError{Row: row, Error: "required fields are empty", Fields: empty})
			continue
		}

		code := field(ColCode)
		if seen[code] {
			return nil, &CriticalError{Row: row, Message: "duplicate code in file: " + code}
		}
		seen[code] = true
		if taken[code] {
			return nil, &CriticalError{Row: row, Message: "code already exists in project: " + code}
		}

		coords, err := utils.ParseWGS84(field(ColLatitude), field(ColLongitude))
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Error: err.Error()})
			continue
		}

		res.Points = append(res.Points, model.Point{
			ID:          newID(),
			Coordinates: coords,
			Name:        field(ColName),
			Status:      model.StatusLoaded,
			Attributes:  model.Attributes{CodeAttribute: code},
		})
	}
	return res, nil
}

func mapHeaderIndices(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}
