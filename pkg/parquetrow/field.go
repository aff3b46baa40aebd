// Package parquetrow decodes parquet files into rows of typed fields.
//
// It plays the role of the row decoder collaborator: Open validates the
// container and Next yields one decoded row at a time, with every field
// expressed as a closed union of typed variants and nested groups, lists and
// maps reconstructed from repetition and definition levels.
package parquetrow

// Kind identifies the variant held by a Field.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindByte
	KindUByte
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindLong
	KindULong
	KindFloat
	KindDouble
	KindStr
	KindBytes
	KindDate
	KindTimestampMillis
	KindTimestampMicros
	KindDecimal
	KindGroup
	KindList
	KindMap
)

// Decimal is a fixed-point decimal: Unscaled is a big-endian two's-complement
// signed integer, and the represented value is Unscaled * 10^(-Scale).
type Decimal struct {
	Unscaled []byte
	Scale    int32
}

// Column is one named field of a row or group.
type Column struct {
	Name  string
	Field Field
}

// Row is an ordered sequence of named fields, in source column order.
type Row []Column

// Pair is one key/value entry of a map field. Keys are arbitrary fields, not
// necessarily strings.
type Pair struct {
	Key   Field
	Value Field
}

// Field is a tagged union over the typed field variants. Only the payload
// matching Kind is meaningful.
//
// Int carries Byte, Short, Int, Long, Date (days since epoch) and the
// timestamp variants (milliseconds or microseconds since epoch). Uint carries
// the unsigned widths. Float carries both 32-bit and 64-bit floats.
type Field struct {
	Kind Kind

	Bool    bool
	Int     int64
	Uint    uint64
	Float   float64
	Str     string
	Bytes   []byte
	Decimal Decimal
	Group   Row
	List    []Field
	Map     []Pair
}
