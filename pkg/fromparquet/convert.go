// Package fromparquet converts decoded parquet rows into the generic value
// model used for tabular display, filtering and querying.
package fromparquet

import (
	"fmt"
	"math"
	"time"

	"github.com/go-kit/log"

	"github.com/rowcast/rowcast/pkg/parquetrow"
	"github.com/rowcast/rowcast/pkg/value"
)

// Options selects how decimal fields are normalized. The zero value is the
// default mode: scaled-decimal, collapsed to a single float.
type Options struct {
	// Rational selects exact-rational normalization (numerator/denominator)
	// instead of scaled-decimal normalization.
	Rational bool
	// ExtendedDecimal emits a record preserving the exact value as text next
	// to the lossy float, instead of collapsing to the float alone.
	ExtendedDecimal bool
}

// Converter applies one fixed Options bundle to every field of a document.
// Conversions never mutate the Converter, so independent conversions with
// independent Converters may run in parallel.
type Converter struct {
	opts    Options
	metrics *Metrics
	logger  log.Logger
}

// New creates a Converter. metrics may be nil for pure library use; a nil
// logger disables logging.
func New(opts Options, metrics *Metrics, logger log.Logger) *Converter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Converter{opts: opts, metrics: metrics, logger: logger}
}

// epoch is the canonical zero reference instant for all date and timestamp
// arithmetic. Never a platform "now".
var epoch = time.Unix(0, 0).UTC()

// Field converts one typed field into a generic value. The conversion is
// total: every field kind produces a value, with conversion failures embedded
// as error values rather than returned.
func (c *Converter) Field(f parquetrow.Field, span value.Span) value.Value {
	out := c.convertField(f, span)
	if c.metrics != nil {
		c.metrics.FieldsConverted.Inc()
		if out.Kind == value.KindError {
			c.metrics.ConversionErrors.Inc()
		}
	}
	return out
}

func (c *Converter) convertField(f parquetrow.Field, span value.Span) value.Value {
	switch f.Kind {
	case parquetrow.KindNull:
		return value.Nothing(span)

	case parquetrow.KindBool:
		return value.Boolean(f.Bool, span)

	case parquetrow.KindByte:
		return value.Binary([]byte{byte(f.Int)}, span)

	case parquetrow.KindUByte:
		return value.Binary([]byte{byte(f.Uint)}, span)

	case parquetrow.KindShort, parquetrow.KindInt, parquetrow.KindLong:
		return value.Int(f.Int, span)

	case parquetrow.KindUShort, parquetrow.KindUInt:
		return value.Int(int64(f.Uint), span)

	case parquetrow.KindULong:
		if f.Uint > math.MaxInt64 {
			help := fmt.Sprintf("value %d out of range for a 64-bit signed integer", f.Uint)
			return value.CantConvert("u64", "i64", help, span)
		}
		return value.Int(int64(f.Uint), span)

	case parquetrow.KindFloat, parquetrow.KindDouble:
		return value.Float(f.Float, span)

	case parquetrow.KindStr:
		return value.String(f.Str, span)

	case parquetrow.KindBytes:
		return value.Binary(f.Bytes, span)

	case parquetrow.KindDate:
		return value.Date(epoch.AddDate(0, 0, int(f.Int)), span)

	case parquetrow.KindTimestampMillis:
		return value.Date(time.UnixMilli(f.Int).UTC(), span)

	case parquetrow.KindTimestampMicros:
		return value.Date(time.UnixMicro(f.Int).UTC(), span)

	case parquetrow.KindDecimal:
		return c.decimal(f.Decimal, span)

	case parquetrow.KindGroup:
		fields := make([]value.RecordField, 0, len(f.Group))
		for _, col := range f.Group {
			fields = append(fields, value.RecordField{
				Name:  col.Name,
				Value: c.Field(col.Field, span),
			})
		}
		return value.NewRecord(fields, span)

	case parquetrow.KindList:
		elems := make([]value.Value, 0, len(f.List))
		for _, e := range f.List {
			elems = append(elems, c.Field(e, span))
		}
		return value.NewList(elems, span)

	case parquetrow.KindMap:
		// Keys are arbitrary values, not necessarily strings, so maps become
		// lists of [key, value] pairs rather than records.
		pairs := make([]value.Value, 0, len(f.Map))
		for _, p := range f.Map {
			kv := []value.Value{c.Field(p.Key, span), c.Field(p.Value, span)}
			pairs = append(pairs, value.NewList(kv, span))
		}
		return value.NewList(pairs, span)
	}

	panic(fmt.Sprintf("fromparquet: unhandled field kind %d", f.Kind))
}
