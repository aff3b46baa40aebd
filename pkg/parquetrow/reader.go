package parquetrow

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

const readBatchSize = 64

var errMalformedRow = errors.New("malformed row: column values do not match schema levels")

// Reader decodes a parquet byte buffer into rows of typed fields. It is a
// sequential iterator and must not be shared across goroutines; independent
// Readers over independent buffers are safe to use in parallel.
type Reader struct {
	file *parquet.File
	root []*node

	groups []parquet.RowGroup
	gi     int
	rows   parquet.Rows
	done   bool

	buf []parquet.Row
	bi  int
	bn  int

	// per-column values of the row currently being assembled
	cols [][]parquet.Value
	pos  []int
}

// Open validates the container and prepares a row iterator over all row
// groups in order. A malformed container fails here, before any row is
// produced.
func Open(data []byte) (*Reader, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	nextCol := 0
	var root []*node
	for _, field := range f.Schema().Fields() {
		root = append(root, buildNode(field, 0, 0, &nextCol))
	}

	return &Reader{
		file:   f,
		root:   root,
		groups: f.RowGroups(),
		buf:    make([]parquet.Row, readBatchSize),
		cols:   make([][]parquet.Value, nextCol),
		pos:    make([]int, nextCol),
	}, nil
}

// Next returns the next decoded row, preserving source column order.
// It returns io.EOF after the last row.
func (r *Reader) Next() (Row, error) {
	raw, err := r.nextRaw()
	if err != nil {
		return nil, err
	}
	return r.assembleRow(raw)
}

// Close releases the open row group iterator, if any.
func (r *Reader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.rows = nil
		return err
	}
	return nil
}

func (r *Reader) nextRaw() (parquet.Row, error) {
	for {
		if r.bi < r.bn {
			raw := r.buf[r.bi]
			r.bi++
			return raw, nil
		}
		if r.rows != nil && r.done {
			if err := r.Close(); err != nil {
				return nil, fmt.Errorf("close row group: %w", err)
			}
			r.done = false
		}
		if r.rows == nil {
			if r.gi >= len(r.groups) {
				return nil, io.EOF
			}
			r.rows = r.groups[r.gi].Rows()
			r.gi++
		}

		n, err := r.rows.ReadRows(r.buf)
		r.bi, r.bn = 0, n
		switch {
		case err == nil:
			if n == 0 {
				r.done = true
			}
		case errors.Is(err, io.EOF):
			r.done = true
		default:
			return nil, fmt.Errorf("read rows: %w", err)
		}
	}
}

// assembleRow reconstructs the nested row structure from the flat value
// sequence using repetition and definition levels.
func (r *Reader) assembleRow(raw parquet.Row) (Row, error) {
	for i := range r.cols {
		r.cols[i] = r.cols[i][:0]
		r.pos[i] = 0
	}
	for _, v := range raw {
		c := v.Column()
		if c < 0 || c >= len(r.cols) {
			return nil, errMalformedRow
		}
		r.cols[c] = append(r.cols[c], v)
	}

	out := make(Row, 0, len(r.root))
	for _, n := range r.root {
		f, err := r.assembleField(n)
		if err != nil {
			return nil, err
		}
		out = append(out, Column{Name: n.name, Field: f})
	}
	return out, nil
}

// assembleField assembles one occurrence of n in a non-repeated position,
// resolving nullability; repeated nodes become lists of their occurrences.
func (r *Reader) assembleField(n *node) (Field, error) {
	if n.repeated {
		elems, err := r.assembleRepeated(n, n, false)
		if err != nil {
			return Field{}, err
		}
		return Field{Kind: KindList, List: elems}, nil
	}
	if n.optional {
		v, ok := r.peek(n.leafCols[0])
		if !ok {
			return Field{}, errMalformedRow
		}
		if v.DefinitionLevel() < n.defLevel {
			r.skip(n)
			return Field{Kind: KindNull}, nil
		}
	}
	return r.assembleValue(n)
}

// assembleValue assembles one present occurrence of n.
func (r *Reader) assembleValue(n *node) (Field, error) {
	if n.leaf {
		v, ok := r.pop(n.column)
		if !ok {
			return Field{}, errMalformedRow
		}
		return leafField(n, v)
	}
	switch n.shape {
	case shapeList:
		mid := n.children[0]
		elem, project := listElement(mid)
		elems, err := r.assembleRepeated(mid, elem, project)
		if err != nil {
			return Field{}, err
		}
		return Field{Kind: KindList, List: elems}, nil
	case shapeMap:
		pairs, err := r.assembleMap(n.children[0])
		if err != nil {
			return Field{}, err
		}
		return Field{Kind: KindMap, Map: pairs}, nil
	}
	return r.assembleGroup(n)
}

func (r *Reader) assembleGroup(n *node) (Field, error) {
	fields := make(Row, 0, len(n.children))
	for _, c := range n.children {
		f, err := r.assembleField(c)
		if err != nil {
			return Field{}, err
		}
		fields = append(fields, Column{Name: c.name, Field: f})
	}
	return Field{Kind: KindGroup, Group: fields}, nil
}

// assembleRepeated collects the occurrences of the repeated node rep within
// the current enclosing instance. When project is true each occurrence is the
// single child elem of a synthetic wrapper group, otherwise the occurrence is
// rep itself. An occurrence whose definition level is below rep's means zero
// occurrences; subsequent occurrences continue while the next value's
// repetition level equals rep's.
func (r *Reader) assembleRepeated(rep, elem *node, project bool) ([]Field, error) {
	c := rep.leafCols[0]
	v, ok := r.peek(c)
	if !ok {
		return nil, errMalformedRow
	}
	if v.DefinitionLevel() < rep.defLevel {
		r.skip(rep)
		return nil, nil
	}

	var elems []Field
	for {
		var (
			e   Field
			err error
		)
		if project {
			e, err = r.assembleField(elem)
		} else {
			e, err = r.assembleValue(rep)
		}
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)

		next, ok := r.peek(c)
		if !ok || next.RepetitionLevel() != rep.repLevel {
			return elems, nil
		}
	}
}

// assembleMap collects key/value pairs from the repeated key_value group kv.
func (r *Reader) assembleMap(kv *node) ([]Pair, error) {
	c := kv.leafCols[0]
	v, ok := r.peek(c)
	if !ok {
		return nil, errMalformedRow
	}
	if v.DefinitionLevel() < kv.defLevel {
		r.skip(kv)
		return nil, nil
	}

	var pairs []Pair
	for {
		key, err := r.assembleField(kv.children[0])
		if err != nil {
			return nil, err
		}
		val, err := r.assembleField(kv.children[1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: val})

		next, ok := r.peek(c)
		if !ok || next.RepetitionLevel() != kv.repLevel {
			return pairs, nil
		}
	}
}

// skip consumes the placeholder value every leaf column carries for an absent
// or empty subtree.
func (r *Reader) skip(n *node) {
	for _, c := range n.leafCols {
		r.pos[c]++
	}
}

func (r *Reader) peek(c int) (parquet.Value, bool) {
	if r.pos[c] >= len(r.cols[c]) {
		return parquet.Value{}, false
	}
	return r.cols[c][r.pos[c]], true
}

func (r *Reader) pop(c int) (parquet.Value, bool) {
	v, ok := r.peek(c)
	if ok {
		r.pos[c]++
	}
	return v, ok
}

// leafField decodes one present leaf value into its typed field. Byte and
// decimal payloads are copied out of reader-owned buffers.
func leafField(n *node, v parquet.Value) (Field, error) {
	if v.IsNull() {
		return Field{Kind: KindNull}, nil
	}

	switch n.kind {
	case KindBool:
		return Field{Kind: KindBool, Bool: v.Boolean()}, nil
	case KindByte:
		return Field{Kind: KindByte, Int: int64(int8(v.Int32()))}, nil
	case KindUByte:
		return Field{Kind: KindUByte, Uint: uint64(uint8(v.Int32()))}, nil
	case KindShort:
		return Field{Kind: KindShort, Int: int64(int16(v.Int32()))}, nil
	case KindUShort:
		return Field{Kind: KindUShort, Uint: uint64(uint16(v.Int32()))}, nil
	case KindInt:
		return Field{Kind: KindInt, Int: int64(v.Int32())}, nil
	case KindUInt:
		return Field{Kind: KindUInt, Uint: uint64(uint32(v.Int32()))}, nil
	case KindLong:
		return Field{Kind: KindLong, Int: v.Int64()}, nil
	case KindULong:
		return Field{Kind: KindULong, Uint: uint64(v.Int64())}, nil
	case KindFloat:
		return Field{Kind: KindFloat, Float: float64(v.Float())}, nil
	case KindDouble:
		return Field{Kind: KindDouble, Float: v.Double()}, nil
	case KindStr:
		return Field{Kind: KindStr, Str: string(v.ByteArray())}, nil
	case KindBytes:
		return Field{Kind: KindBytes, Bytes: leafBytes(v)}, nil
	case KindDate:
		return Field{Kind: KindDate, Int: int64(v.Int32())}, nil
	case KindTimestampMillis:
		return Field{Kind: KindTimestampMillis, Int: v.Int64()}, nil
	case KindTimestampMicros:
		us := v.Int64()
		if n.nanos {
			us /= 1000
		}
		return Field{Kind: KindTimestampMicros, Int: us}, nil
	case KindDecimal:
		return Field{Kind: KindDecimal, Decimal: Decimal{
			Unscaled: unscaledBytes(v),
			Scale:    n.scale,
		}}, nil
	}
	return Field{}, fmt.Errorf("unhandled leaf kind %d for column %q", n.kind, n.name)
}

// unscaledBytes returns the big-endian two's-complement unscaled value of a
// decimal leaf, regardless of its physical encoding.
func unscaledBytes(v parquet.Value) []byte {
	switch v.Kind() {
	case parquet.Int32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v.Int32()))
		return b
	case parquet.Int64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v.Int64()))
		return b
	default:
		return append([]byte(nil), v.ByteArray()...)
	}
}

func leafBytes(v parquet.Value) []byte {
	if v.Kind() == parquet.Int96 {
		i96 := v.Int96()
		b := make([]byte, 12)
		for i, w := range i96 {
			binary.LittleEndian.PutUint32(b[i*4:], w)
		}
		return b
	}
	return append([]byte(nil), v.ByteArray()...)
}
