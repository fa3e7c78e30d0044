package flowmap

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lcatools/flowlink/internal/refdata"
)

// The mapping file is a delimited table with one row per entry. Column
// order is fixed:
//
//	0  flow type          5  resolved flow id       9  flow property id
//	1  query name         6  resolved flow name    10  provider id ("" = none)
//	2  query unit         7  resolved category     11  conversion factor
//	3  query category     8  unit id
//	4  query location
const rowColumns = 12

// ParseError reports a malformed persisted mapping row. A corrupted mapping
// file cannot be trusted, so loading fails fast on the first bad row.
type ParseError struct {
	// Row is the 1-based row number in the file.
	Row int

	// Err describes what was wrong with the row.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE: mapping row %d: %v", e.Row, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is a malformed-row failure.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// EncodeRow serializes an entry into its persisted column form.
func EncodeRow(entry Entry) []string {
	return []string{
		string(entry.From.FlowType()),
		entry.From.Name(),
		entry.From.Unit(),
		entry.From.Category(),
		entry.From.Location(),
		entry.To.Flow.ID,
		entry.To.Flow.Name,
		entry.To.Flow.Category,
		entry.To.Unit.ID,
		entry.To.FlowProperty.ID,
		entry.To.Provider.ID,
		strconv.FormatFloat(entry.ConversionFactor, 'g', -1, 64),
	}
}

// DecodeRow parses one persisted row. The row number is only used for error
// reporting and is 1-based.
func DecodeRow(record []string, row int) (Entry, error) {
	if len(record) != rowColumns {
		return Entry{}, &ParseError{Row: row,
			Err: fmt.Errorf("want %d columns, got %d", rowColumns, len(record))}
	}

	flowType, ok := refdata.ParseFlowType(record[0])
	if !ok {
		return Entry{}, &ParseError{Row: row,
			Err: fmt.Errorf("unknown flow type %q", record[0])}
	}
	if record[1] == "" {
		return Entry{}, &ParseError{Row: row, Err: fmt.Errorf("empty flow name")}
	}

	factor, err := strconv.ParseFloat(record[11], 64)
	if err != nil {
		return Entry{}, &ParseError{Row: row,
			Err: fmt.Errorf("bad conversion factor %q: %w", record[11], err)}
	}
	if factor <= 0 {
		return Entry{}, &ParseError{Row: row,
			Err: fmt.Errorf("conversion factor must be > 0, got %v", factor)}
	}

	query := For(flowType, record[1]).
		WithUnit(record[2]).
		WithCategory(record[3]).
		WithLocation(record[4])

	return Entry{
		From: query,
		To: Target{
			Flow:         FlowRef{ID: record[5], Name: record[6], Category: record[7]},
			Unit:         refdata.Ref{ID: record[8]},
			FlowProperty: refdata.Ref{ID: record[9]},
			Provider:     refdata.Ref{ID: record[10]},
		},
		ConversionFactor: factor,
	}, nil
}
