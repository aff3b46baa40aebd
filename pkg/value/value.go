// Package value holds the dynamically-typed value model produced by
// converting columnar data into a generic table representation.
package value

import (
	"fmt"
	"time"
)

// Span is a diagnostic source-position tag. It is attached to every Value and
// propagated unchanged through conversion; nothing in this module ever reads
// it to make a decision.
type Span struct {
	Start int
	End   int
}

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNothing Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindDate
	KindRecord
	KindList
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNothing:
		return "nothing"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDate:
		return "date"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// RecordField is one named column of a Record. Names are not required to be
// unique; order is the column order of the source row or group.
type RecordField struct {
	Name  string
	Value Value
}

// ConvError describes a conversion that could not be performed. It is embedded
// in the output as a KindError value at the position the converted value would
// have occupied, so one bad field never invalidates the rest of the document.
type ConvError struct {
	FromType string
	ToType   string
	Help     string
}

func (e *ConvError) Error() string {
	return fmt.Sprintf("can't convert %s to %s: %s", e.FromType, e.ToType, e.Help)
}

// Value is a tagged union over the generic value kinds. Only the payload
// matching Kind is meaningful.
type Value struct {
	Kind Kind
	Span Span

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Bytes  []byte
	Time   time.Time
	Record []RecordField
	List   []Value
	Err    *ConvError
}

// Nothing returns the null value.
func Nothing(span Span) Value {
	return Value{Kind: KindNothing, Span: span}
}

// Boolean returns a boolean value.
func Boolean(b bool, span Span) Value {
	return Value{Kind: KindBool, Span: span, Bool: b}
}

// Int returns a 64-bit signed integer value.
func Int(i int64, span Span) Value {
	return Value{Kind: KindInt, Span: span, Int: i}
}

// Float returns a 64-bit float value.
func Float(f float64, span Span) Value {
	return Value{Kind: KindFloat, Span: span, Float: f}
}

// String returns a string value.
func String(s string, span Span) Value {
	return Value{Kind: KindString, Span: span, Str: s}
}

// Binary returns a binary value. The payload is copied so the result never
// aliases a buffer owned by the caller.
func Binary(b []byte, span Span) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: KindBinary, Span: span, Bytes: cp}
}

// Date returns an absolute timestamp value.
func Date(t time.Time, span Span) Value {
	return Value{Kind: KindDate, Span: span, Time: t}
}

// NewRecord returns a record value over the given ordered fields.
func NewRecord(fields []RecordField, span Span) Value {
	return Value{Kind: KindRecord, Span: span, Record: fields}
}

// NewList returns a list value over the given ordered elements.
func NewList(elems []Value, span Span) Value {
	return Value{Kind: KindList, Span: span, List: elems}
}

// CantConvert returns an embedded conversion error value.
func CantConvert(fromType, toType, help string, span Span) Value {
	return Value{
		Kind: KindError,
		Span: span,
		Err:  &ConvError{FromType: fromType, ToType: toType, Help: help},
	}
}
