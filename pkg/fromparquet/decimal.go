package fromparquet

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rowcast/rowcast/pkg/parquetrow"
	"github.com/rowcast/rowcast/pkg/value"
)

const decimalFloatHelp = "cannot convert this decimal to a 64-bit float"

// maxFloatUnscaled bounds the unscaled values reduced to float: above 2^53 a
// float64 can no longer represent every integer exactly. The comparison is
// signed, so negative unscaled values always pass.
var maxFloatUnscaled = new(big.Int).Lsh(big.NewInt(1), 53)

// decimal normalizes unscaled * 10^(-scale) per the configured options.
func (c *Converter) decimal(d parquetrow.Decimal, span value.Span) value.Value {
	unscaled := unscaledBigInt(d.Unscaled)
	if c.opts.Rational {
		return c.rationalDecimal(unscaled, d.Scale, span)
	}
	return c.scaledDecimal(unscaled, d.Scale, span)
}

// unscaledBigInt interprets b as a big-endian two's-complement signed integer.
func unscaledBigInt(b []byte) *big.Int {
	i := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		i.Sub(i, new(big.Int).Lsh(big.NewInt(1), uint(len(b))*8))
	}
	return i
}

func (c *Converter) scaledDecimal(unscaled *big.Int, scale int32, span value.Span) value.Value {
	dec := decimal.NewFromBigInt(unscaled, -scale)

	var (
		f  float64
		ok bool
	)
	if unscaled.Cmp(maxFloatUnscaled) <= 0 {
		f, _ = dec.Float64()
		ok = true
	}

	if !c.opts.ExtendedDecimal {
		if !ok {
			return value.CantConvert("decimal", "float", decimalFloatHelp, span)
		}
		return value.Float(f, span)
	}

	// StringFixed keeps the scale-implied trailing zeros, so the text field is
	// a lossless rendering of the stored value.
	fields := []value.RecordField{
		{Name: "value", Value: floatOrNothing(f, ok, span)},
		{Name: "text", Value: value.String(dec.StringFixed(scale), span)},
	}
	return value.NewRecord(fields, span)
}

func (c *Converter) rationalDecimal(unscaled *big.Int, scale int32, span value.Span) value.Value {
	// A negative unscaled value is accepted as-is; its sign flows into the
	// numerator. Reduction to lowest terms is implicit in big.Rat.
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	rat := new(big.Rat).SetFrac(unscaled, denom)

	f, _ := rat.Float64()
	ok := !math.IsInf(f, 0)

	if !c.opts.ExtendedDecimal {
		if !ok {
			return value.CantConvert("decimal", "float", decimalFloatHelp, span)
		}
		return value.Float(f, span)
	}

	fields := []value.RecordField{
		{Name: "value", Value: floatOrNothing(f, ok, span)},
		{Name: "numerator", Value: intOrNothing(rat.Num(), span)},
		{Name: "denominator", Value: intOrNothing(rat.Denom(), span)},
		{Name: "text", Value: value.String(rat.Num().String() + "/" + rat.Denom().String(), span)},
	}
	return value.NewRecord(fields, span)
}

func floatOrNothing(f float64, ok bool, span value.Span) value.Value {
	if !ok {
		return value.Nothing(span)
	}
	return value.Float(f, span)
}

func intOrNothing(i *big.Int, span value.Span) value.Value {
	if !i.IsInt64() {
		return value.Nothing(span)
	}
	return value.Int(i.Int64(), span)
}
