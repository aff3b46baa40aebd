package fromparquet

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowcast/rowcast/pkg/parquetrow"
	"github.com/rowcast/rowcast/pkg/value"
)

func unscaledBE(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func testSpan() value.Span {
	return value.Span{Start: 3, End: 17}
}

func TestDecimal_DefaultModeFloat(t *testing.T) {
	c := New(Options{}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(100), Scale: 2},
	}, testSpan())

	require.Equal(t, value.KindFloat, out.Kind)
	require.Equal(t, 1.0, out.Float)
	require.Equal(t, testSpan(), out.Span)
}

func TestDecimal_ExtendedScaled(t *testing.T) {
	c := New(Options{ExtendedDecimal: true}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(100), Scale: 2},
	}, testSpan())

	require.Equal(t, value.KindRecord, out.Kind)
	require.Len(t, out.Record, 2)

	require.Equal(t, "value", out.Record[0].Name)
	require.Equal(t, value.KindFloat, out.Record[0].Value.Kind)
	require.Equal(t, 1.0, out.Record[0].Value.Float)

	// Lossless rendering keeps the scale-implied trailing zeros.
	require.Equal(t, "text", out.Record[1].Name)
	require.Equal(t, value.KindString, out.Record[1].Value.Kind)
	require.Equal(t, "1.00", out.Record[1].Value.Str)
}

func TestDecimal_ExtendedRational(t *testing.T) {
	c := New(Options{Rational: true, ExtendedDecimal: true}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(100), Scale: 2},
	}, testSpan())

	require.Equal(t, value.KindRecord, out.Kind)
	require.Len(t, out.Record, 4)

	names := []string{"value", "numerator", "denominator", "text"}
	for i, name := range names {
		require.Equal(t, name, out.Record[i].Name)
	}

	require.Equal(t, 1.0, out.Record[0].Value.Float)
	require.Equal(t, int64(1), out.Record[1].Value.Int)
	require.Equal(t, int64(1), out.Record[2].Value.Int)
	require.Equal(t, "1/1", out.Record[3].Value.Str)
}

func TestDecimal_RationalDefaultModeFloat(t *testing.T) {
	c := New(Options{Rational: true}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(12345), Scale: 2},
	}, testSpan())

	require.Equal(t, value.KindFloat, out.Kind)
	require.Equal(t, 123.45, out.Float)
}

func TestDecimal_RationalNegativeUnscaled(t *testing.T) {
	// Sign is allowed to flow into the numerator without validation.
	c := New(Options{Rational: true, ExtendedDecimal: true}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(-100), Scale: 2},
	}, testSpan())

	require.Equal(t, value.KindRecord, out.Kind)
	require.Equal(t, int64(-1), out.Record[1].Value.Int)
	require.Equal(t, int64(1), out.Record[2].Value.Int)
	require.Equal(t, "-1/1", out.Record[3].Value.Str)
	require.Equal(t, -1.0, out.Record[0].Value.Float)
}

func TestDecimal_FloatOverflow(t *testing.T) {
	c := New(Options{}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(1<<53 + 1), Scale: 0},
	}, testSpan())

	require.Equal(t, value.KindError, out.Kind)
	require.Equal(t, "decimal", out.Err.FromType)
	require.Equal(t, "float", out.Err.ToType)
	require.NotEmpty(t, out.Err.Help)
}

func TestDecimal_NegativeUnscaledPassesFloatBound(t *testing.T) {
	// The magnitude bound is a signed comparison, so a large negative unscaled
	// value still reduces to a float.
	c := New(Options{}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(-(1<<53 + 1)), Scale: 0},
	}, testSpan())

	require.Equal(t, value.KindFloat, out.Kind)
}

func TestDecimal_ExtendedScaledOverflow(t *testing.T) {
	c := New(Options{ExtendedDecimal: true}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(1<<53 + 1), Scale: 0},
	}, testSpan())

	require.Equal(t, value.KindRecord, out.Kind)
	require.Equal(t, value.KindNothing, out.Record[0].Value.Kind)
	require.Equal(t, "9007199254740993", out.Record[1].Value.Str)
}

func TestDecimal_DenominatorOverflowIsNothing(t *testing.T) {
	c := New(Options{Rational: true, ExtendedDecimal: true}, nil, nil)

	out := c.Field(parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(1), Scale: 30},
	}, testSpan())

	require.Equal(t, value.KindRecord, out.Kind)
	require.Equal(t, int64(1), out.Record[1].Value.Int)
	require.Equal(t, value.KindNothing, out.Record[2].Value.Kind)
	require.Equal(t, "1/1000000000000000000000000000000", out.Record[3].Value.Str)
}

func TestDecimal_ScaledAndRationalTextAgree(t *testing.T) {
	scaled := New(Options{ExtendedDecimal: true}, nil, nil)
	rational := New(Options{Rational: true, ExtendedDecimal: true}, nil, nil)

	field := parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(12345), Scale: 2},
	}

	st := scaled.Field(field, testSpan()).Record[1].Value.Str
	rt := rational.Field(field, testSpan()).Record[3].Value.Str
	require.Equal(t, "123.45", st)
	require.Equal(t, "2469/20", rt)

	// Different renderings, same mathematical value.
	sv, ok := new(big.Rat).SetString(st)
	require.True(t, ok)
	rv, ok := new(big.Rat).SetString(rt)
	require.True(t, ok)
	require.Zero(t, sv.Cmp(rv))
}

func TestDecimal_Deterministic(t *testing.T) {
	c := New(Options{}, nil, nil)
	field := parquetrow.Field{
		Kind:    parquetrow.KindDecimal,
		Decimal: parquetrow.Decimal{Unscaled: unscaledBE(999999), Scale: 4},
	}

	first := c.Field(field, testSpan())
	for i := 0; i < 10; i++ {
		require.Equal(t, first, c.Field(field, testSpan()))
	}
}

func TestUnscaledBigInt_ShortAndNegative(t *testing.T) {
	// Two's-complement decoding is width-sensitive: a single 0x9c byte is -100.
	require.Equal(t, int64(-100), unscaledBigInt([]byte{0x9c}).Int64())
	require.Equal(t, int64(-100), unscaledBigInt(unscaledBE(-100)).Int64())
	require.Equal(t, int64(156), unscaledBigInt([]byte{0x00, 0x9c}).Int64())
	require.Zero(t, unscaledBigInt(nil).Sign())
}
