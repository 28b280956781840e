package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danderson/objmap/universal"
)

// XML is the XML marshaller. Since XML has no native notion of lists,
// numbers or booleans, values are written in a small typed dialect:
//
//	<map>
//	  <string key="name">Alice</string>
//	  <list key="tags"><bool>true</bool><null/></list>
//	  <number key="age">30</number>
//	</map>
//
// Documents in this dialect round-trip without loss.
type XML struct{}

func (XML) Name() string { return "xml" }

const xmlKeyAttr = "key"

func (XML) Marshal(v universal.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := writeXML(enc, v, ""); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlStart(name, key string) xml.StartElement {
	ret := xml.StartElement{Name: xml.Name{Local: name}}
	if key != "" {
		ret.Attr = []xml.Attr{{Name: xml.Name{Local: xmlKeyAttr}, Value: key}}
	}
	return ret
}

func writeXMLText(enc *xml.Encoder, name, key, text string) error {
	start := xmlStart(name, key)
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func writeXML(enc *xml.Encoder, v universal.Value, key string) error {
	switch v := v.(type) {
	case nil, universal.Null:
		return writeXMLText(enc, "null", key, "")
	case universal.Bool:
		return writeXMLText(enc, "bool", key, fmt.Sprint(bool(v)))
	case universal.Number:
		if !v.Valid() {
			return fmt.Errorf("number %q has no XML representation", string(v))
		}
		return writeXMLText(enc, "number", key, string(v))
	case universal.String:
		return writeXMLText(enc, "string", key, string(v))
	case universal.List:
		start := xmlStart("list", key)
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, e := range v {
			if err := writeXML(enc, e, ""); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case universal.Map:
		start := xmlStart("map", key)
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, e := range v {
			if e.Key == "" {
				return errors.New("xml cannot represent an empty map key")
			}
			if err := writeXML(enc, e.Value, e.Key); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	}
	return fmt.Errorf("unknown universal value %T", v)
}

func (XML) Unmarshal(data []byte) (universal.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	start, err := nextXMLStart(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding xml: %w", err)
	}
	v, err := readXML(dec, start)
	if err != nil {
		return nil, fmt.Errorf("decoding xml: %w", err)
	}
	if _, err := nextXMLStart(dec); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding xml: more than one root element")
	}
	return v, nil
}

// nextXMLStart skips to the next start element. It returns io.EOF at
// the end of input, and errEndElement if the enclosing element closes
// first.
func nextXMLStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			return tok, nil
		case xml.EndElement:
			return xml.StartElement{}, errEndElement
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) != 0 {
				return xml.StartElement{}, fmt.Errorf("unexpected text %q", string(tok))
			}
		}
	}
}

var errEndElement = errors.New("end of element")

func xmlKey(start xml.StartElement) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == xmlKeyAttr {
			return a.Value, true
		}
	}
	return "", false
}

func readXMLText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch tok := tok.(type) {
		case xml.CharData:
			b.Write(tok)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", fmt.Errorf("unexpected element <%s> inside scalar", tok.Name.Local)
		}
	}
}

func readXML(dec *xml.Decoder, start xml.StartElement) (universal.Value, error) {
	switch start.Name.Local {
	case "null":
		if _, err := readXMLText(dec); err != nil {
			return nil, err
		}
		return universal.Null{}, nil
	case "bool":
		s, err := readXMLText(dec)
		if err != nil {
			return nil, err
		}
		switch strings.TrimSpace(s) {
		case "true":
			return universal.Bool(true), nil
		case "false":
			return universal.Bool(false), nil
		}
		return nil, fmt.Errorf("invalid bool %q", s)
	case "number":
		s, err := readXMLText(dec)
		if err != nil {
			return nil, err
		}
		n := universal.Number(strings.TrimSpace(s))
		if !n.Valid() {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return n, nil
	case "string":
		s, err := readXMLText(dec)
		if err != nil {
			return nil, err
		}
		return universal.String(s), nil
	case "list":
		ret := universal.List{}
		for {
			child, err := nextXMLStart(dec)
			if errors.Is(err, errEndElement) {
				return ret, nil
			} else if err != nil {
				return nil, err
			}
			v, err := readXML(dec, child)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
	case "map":
		ret := universal.Map{}
		for {
			child, err := nextXMLStart(dec)
			if errors.Is(err, errEndElement) {
				return ret, nil
			} else if err != nil {
				return nil, err
			}
			k, ok := xmlKey(child)
			if !ok {
				return nil, fmt.Errorf("map entry <%s> has no %q attribute", child.Name.Local, xmlKeyAttr)
			}
			v, err := readXML(dec, child)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			ret = ret.Set(k, v)
		}
	}
	return nil, fmt.Errorf("unknown element <%s>", start.Name.Local)
}
