package parquetrow

import (
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
)

type groupShape int

const (
	shapeGroup groupShape = iota
	shapeList
	shapeMap
)

// node is a precomputed view of one schema node: the levels required to tell
// presence and repetition apart during record assembly, the leaf columns under
// it, and for leaves the field kind they decode to.
type node struct {
	name     string
	leaf     bool
	optional bool
	repeated bool

	// repLevel is the repetition level of values that start a new occurrence
	// of this node; defLevel is the definition level at which this node is
	// present (for repeated nodes, at which an element exists).
	repLevel int
	defLevel int

	children []*node
	shape    groupShape

	// leaf typing
	kind     Kind
	scale    int32
	physical parquet.Kind
	nanos    bool // timestamp stored in nanoseconds, reduced to micros

	column   int
	leafCols []int
}

func buildNode(f parquet.Field, rep, def int, nextCol *int) *node {
	n := &node{
		name:     f.Name(),
		optional: f.Optional(),
		repeated: f.Repeated(),
	}
	if n.optional || n.repeated {
		def++
	}
	if n.repeated {
		rep++
	}
	n.repLevel = rep
	n.defLevel = def

	if f.Leaf() {
		n.leaf = true
		t := f.Type()
		n.physical = t.Kind()
		n.kind, n.scale, n.nanos = leafKind(t)
		n.column = *nextCol
		*nextCol++
		n.leafCols = []int{n.column}
		return n
	}

	for _, child := range f.Fields() {
		c := buildNode(child, rep, def, nextCol)
		n.children = append(n.children, c)
		n.leafCols = append(n.leafCols, c.leafCols...)
	}
	n.shape = groupShapeOf(f, n.children)
	return n
}

// groupShapeOf classifies a group node as a logical list, a logical map, or a
// plain group. Classification is structural first (the standard three-level
// shapes emitted by writers) with the logical type annotation as confirmation,
// so both annotated and legacy files are handled.
func groupShapeOf(f parquet.Field, children []*node) groupShape {
	lt := f.Type().LogicalType()
	if len(children) != 1 || !children[0].repeated || children[0].leaf {
		return shapeGroup
	}
	mid := children[0]

	if lt != nil && lt.Map != nil {
		if len(mid.children) == 2 {
			return shapeMap
		}
		return shapeGroup
	}
	if lt != nil && lt.List != nil {
		return shapeList
	}

	switch mid.name {
	case "key_value", "map":
		if len(mid.children) == 2 {
			return shapeMap
		}
	case "list", "array", "bag":
		return shapeList
	}
	if len(mid.children) == 1 && mid.children[0].name == "element" {
		return shapeList
	}
	return shapeGroup
}

// listElement returns the node holding list element values and whether the
// repeated group is a synthetic wrapper to be projected away. A repeated leaf
// or a repeated group with multiple fields is its own element.
func listElement(mid *node) (*node, bool) {
	if !mid.leaf && len(mid.children) == 1 {
		return mid.children[0], true
	}
	return mid, false
}

// leafKind maps a leaf's physical and logical type onto a field kind.
func leafKind(t parquet.Type) (Kind, int32, bool) {
	lt := t.LogicalType()
	ct := t.ConvertedType()

	switch t.Kind() {
	case parquet.Boolean:
		return KindBool, 0, false

	case parquet.Int32:
		if lt != nil {
			switch {
			case lt.Date != nil:
				return KindDate, 0, false
			case lt.Decimal != nil:
				return KindDecimal, lt.Decimal.Scale, false
			case lt.Integer != nil:
				return intKind(lt.Integer.BitWidth, lt.Integer.IsSigned), 0, false
			}
		}
		if k, ok := convertedInt32Kind(ct); ok {
			return k, 0, false
		}
		return KindInt, 0, false

	case parquet.Int64:
		if lt != nil {
			switch {
			case lt.Timestamp != nil:
				if lt.Timestamp.Unit.Millis != nil {
					return KindTimestampMillis, 0, false
				}
				return KindTimestampMicros, 0, lt.Timestamp.Unit.Nanos != nil
			case lt.Decimal != nil:
				return KindDecimal, lt.Decimal.Scale, false
			case lt.Integer != nil && !lt.Integer.IsSigned:
				return KindULong, 0, false
			}
		}
		if ct != nil {
			switch *ct {
			case deprecated.TimestampMillis:
				return KindTimestampMillis, 0, false
			case deprecated.TimestampMicros:
				return KindTimestampMicros, 0, false
			case deprecated.Uint64:
				return KindULong, 0, false
			}
		}
		return KindLong, 0, false

	case parquet.Float:
		return KindFloat, 0, false

	case parquet.Double:
		return KindDouble, 0, false

	case parquet.ByteArray, parquet.FixedLenByteArray:
		if lt != nil {
			switch {
			case lt.UTF8 != nil, lt.Json != nil, lt.Enum != nil:
				return KindStr, 0, false
			case lt.Decimal != nil:
				return KindDecimal, lt.Decimal.Scale, false
			}
		}
		if ct != nil {
			switch *ct {
			case deprecated.UTF8, deprecated.Json, deprecated.Enum:
				return KindStr, 0, false
			}
		}
		return KindBytes, 0, false

	case parquet.Int96:
		// Legacy 96-bit values carry no logical type; keep the raw bytes.
		return KindBytes, 0, false
	}
	return KindBytes, 0, false
}

func intKind(bitWidth int8, signed bool) Kind {
	switch {
	case bitWidth == 8 && signed:
		return KindByte
	case bitWidth == 8:
		return KindUByte
	case bitWidth == 16 && signed:
		return KindShort
	case bitWidth == 16:
		return KindUShort
	case signed:
		return KindInt
	default:
		return KindUInt
	}
}

func convertedInt32Kind(ct *deprecated.ConvertedType) (Kind, bool) {
	if ct == nil {
		return 0, false
	}
	switch *ct {
	case deprecated.Date:
		return KindDate, true
	case deprecated.Int8:
		return KindByte, true
	case deprecated.Uint8:
		return KindUByte, true
	case deprecated.Int16:
		return KindShort, true
	case deprecated.Uint16:
		return KindUShort, true
	case deprecated.Uint32:
		return KindUInt, true
	}
	return 0, false
}
