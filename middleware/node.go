package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	Scalar Kind = iota
	Object
	Array
)

// Field is one member of a JSON object. Objects keep their fields in source
// order so rewritten responses differ from the originals only in url values.
type Field struct {
	Name  string
	Value *Node
}

// Node is a decoded JSON value.
type Node struct {
	Kind   Kind
	Fields []Field // Object
	Items  []*Node // Array
	// Scalar values. Str holds strings; Lit holds the literal for numbers,
	// booleans and null.
	Str   string
	Lit   string
	IsStr bool
}

// ErrTrailingData is returned when a payload holds more than one JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// Decode parses a single JSON value.
func Decode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case string:
		return StringNode(v), nil
	case json.Number:
		return &Node{Kind: Scalar, Lit: v.String()}, nil
	case bool:
		if v {
			return &Node{Kind: Scalar, Lit: "true"}, nil
		}
		return &Node{Kind: Scalar, Lit: "false"}, nil
	case nil:
		return &Node{Kind: Scalar, Lit: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: Object}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		n.Fields = append(n.Fields, Field{Name: name, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: Array}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// StringNode returns a string scalar.
func StringNode(s string) *Node {
	return &Node{Kind: Scalar, Str: s, IsStr: true}
}

// Get returns the value of the named field of an object, or nil.
func (n *Node) Get(name string) *Node {
	if n == nil || n.Kind != Object {
		return nil
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// AsString returns the value of a string scalar.
func (n *Node) AsString() (string, bool) {
	if n == nil || n.Kind != Scalar || !n.IsStr {
		return "", false
	}
	return n.Str, true
}

// Encode writes n as compact JSON without HTML escaping.
func (n *Node) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	switch n.Kind {
	case Object:
		buf.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Array:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		if n.IsStr {
			return writeString(buf, n.Str)
		}
		buf.WriteString(n.Lit)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
