package fromparquet

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log/level"

	"github.com/rowcast/rowcast/pkg/parquetrow"
	"github.com/rowcast/rowcast/pkg/value"
)

// Document decodes a full parquet byte buffer into a list of records, one per
// row. A buffer that cannot be opened or iterated is fatal and returns an
// error with no partial result; individual field conversion failures are
// embedded in the output as error values and do not stop traversal.
func (c *Converter) Document(data []byte, span value.Span) (value.Value, error) {
	r, err := parquetrow.Open(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("open row reader: %w", err)
	}
	defer r.Close()

	var rows []value.Value
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return value.Value{}, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, c.Row(row, span))
		if c.metrics != nil {
			c.metrics.RowsConverted.Inc()
		}
	}

	level.Debug(c.logger).Log("msg", "converted document", "rows", len(rows))
	return value.NewList(rows, span), nil
}

// Row converts one decoded row into a record, preserving column order.
func (c *Converter) Row(row parquetrow.Row, span value.Span) value.Value {
	fields := make([]value.RecordField, 0, len(row))
	for _, col := range row {
		fields = append(fields, value.RecordField{
			Name:  col.Name,
			Value: c.Field(col.Field, span),
		})
	}
	return value.NewRecord(fields, span)
}
