package wire

import (
	"bufio"
	"fmt"
	"io"
)

// Encoder writes JSON values as UTF-8, one value per Encode call, matching
// the wire protocol's "one JSON object, then a blank line, then flush"
// framing (spec §6).
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder wraps w for repeated Encode calls.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes v followed by a blank line and flushes.
func (e *Encoder) Encode(v Value) error {
	if err := writeValue(e.w, v); err != nil {
		return err
	}
	if _, err := e.w.WriteString("\n\n"); err != nil {
		return err
	}
	return e.w.Flush()
}

func writeValue(w *bufio.Writer, v Value) error {
	switch t := v.(type) {
	case nil:
		_, err := w.WriteString("null")
		return err
	case nullValue:
		_, err := w.WriteString("null")
		return err
	case Bool:
		if t {
			_, err := w.WriteString("true")
			return err
		}
		_, err := w.WriteString("false")
		return err
	case Number:
		_, err := w.WriteString(t.String())
		return err
	case Str:
		return writeString(w, t)
	case List:
		return writeList(w, t)
	case *Object:
		return writeObject(w, t)
	default:
		return fmt.Errorf("wire: unencodable value type %T", v)
	}
}

func writeString(w *bufio.Writer, s Str) error {
	if err := w.WriteByte('"'); err != nil {
		return err
	}
	for _, r := range s.Runes {
		if err := writeEscapedRune(w, r); err != nil {
			return err
		}
	}
	return w.WriteByte('"')
}

func writeEscapedRune(w *bufio.Writer, r rune) error {
	switch r {
	case '"':
		_, err := w.WriteString(`\"`)
		return err
	case '\\':
		_, err := w.WriteString(`\\`)
		return err
	case '\n':
		_, err := w.WriteString(`\n`)
		return err
	case '\t':
		_, err := w.WriteString(`\t`)
		return err
	case '\r':
		_, err := w.WriteString(`\r`)
		return err
	}
	if r < 0x20 {
		_, err := fmt.Fprintf(w, `\u%04x`, r)
		return err
	}
	_, err := w.WriteRune(r)
	return err
}

func writeList(w *bufio.Writer, l List) error {
	if err := w.WriteByte('['); err != nil {
		return err
	}
	for i, v := range l {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := writeValue(w, v); err != nil {
			return err
		}
	}
	return w.WriteByte(']')
}

func writeObject(w *bufio.Writer, o *Object) error {
	if err := w.WriteByte('{'); err != nil {
		return err
	}
	for i, k := range o.keys {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := writeString(w, NewString(k)); err != nil {
			return err
		}
		if err := w.WriteByte(':'); err != nil {
			return err
		}
		if err := writeValue(w, o.values[k]); err != nil {
			return err
		}
	}
	return w.WriteByte('}')
}

// Marshal renders v to a standalone byte slice (no trailing blank line),
// useful for golden-file tests and for embedding in autosave documents.
func Marshal(v Value) ([]byte, error) {
	var buf writerBuf
	bw := bufio.NewWriter(&buf)
	if err := writeValue(bw, v); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type writerBuf struct {
	b []byte
}

func (w *writerBuf) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

func (w *writerBuf) Bytes() []byte { return w.b }
