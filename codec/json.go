package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/danderson/objmap/universal"
)

// JSON is the JSON marshaller. Map key order is preserved in both
// directions, and numbers are carried as literals.
type JSON struct {
	// Indent, if non-empty, pretty-prints output with the given
	// indentation.
	Indent string
}

func (JSON) Name() string { return "json" }

func (j JSON) Marshal(v universal.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	if j.Indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", j.Indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v universal.Value) error {
	switch v := v.(type) {
	case nil, universal.Null:
		buf.WriteString("null")
	case universal.Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case universal.Number:
		if !json.Valid([]byte(v)) {
			return fmt.Errorf("number %q has no JSON representation", string(v))
		}
		buf.WriteString(string(v))
	case universal.String:
		bs, err := json.Marshal(string(v))
		if err != nil {
			return err
		}
		buf.Write(bs)
	case universal.List:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case universal.Map:
		buf.WriteByte('{')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown universal value %T", v)
	}
	return nil
}

func (JSON) Unmarshal(data []byte) (universal.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding json: trailing data after value")
	}
	return v, nil
}

func readJSON(dec *json.Decoder) (universal.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok := tok.(type) {
	case nil:
		return universal.Null{}, nil
	case bool:
		return universal.Bool(tok), nil
	case json.Number:
		return universal.Number(tok), nil
	case string:
		return universal.String(tok), nil
	case json.Delim:
		switch tok {
		case '[':
			ret := universal.List{}
			for dec.More() {
				e, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				ret = append(ret, e)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return ret, nil
		case '{':
			ret := universal.Map{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				e, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				ret = ret.Set(k, e)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return ret, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
