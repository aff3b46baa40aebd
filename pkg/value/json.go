package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// MarshalJSON renders the value tree as JSON. Records become objects with
// fields in source column order (duplicate names are emitted as-is), binary
// payloads are base64 encoded, dates use RFC 3339, and embedded conversion
// errors become an {"error": ...} object.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KindNothing:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		// NaN and infinities are not valid JSON numbers.
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return writeJSONString(buf, strconv.FormatFloat(v.Float, 'g', -1, 64))
		}
		buf.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case KindString:
		return writeJSONString(buf, v.Str)
	case KindBinary:
		return writeJSONString(buf, base64.StdEncoding.EncodeToString(v.Bytes))
	case KindDate:
		return writeJSONString(buf, v.Time.Format(time.RFC3339Nano))
	case KindRecord:
		buf.WriteByte('{')
		for i, f := range v.Record {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindError:
		buf.WriteString(`{"error":{"from":`)
		if err := writeJSONString(buf, v.Err.FromType); err != nil {
			return err
		}
		buf.WriteString(`,"to":`)
		if err := writeJSONString(buf, v.Err.ToType); err != nil {
			return err
		}
		buf.WriteString(`,"help":`)
		if err := writeJSONString(buf, v.Err.Help); err != nil {
			return err
		}
		buf.WriteString(`}}`)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
