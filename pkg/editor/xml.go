package editor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-axelforms/pkg/field"
)

// xnode is the intermediate tree between fields and XML. A variable such as
// "person/name" maps to <person><name>v</name></person>; multi-valued fields
// repeat the leaf element.
type xnode struct {
	name     string
	text     string
	leaf     bool
	children []*xnode
}

func (n *xnode) branch(name string) *xnode {
	for i := len(n.children) - 1; i >= 0; i-- {
		if c := n.children[i]; c.name == name && !c.leaf {
			return c
		}
	}
	c := &xnode{name: name}
	n.children = append(n.children, c)
	return c
}

func segments(variable string) []string {
	var out []string
	for _, s := range strings.Split(variable, "/") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func encode(rootName string, fields []field.Field) ([]byte, error) {
	root := &xnode{name: rootName}
	for _, f := range fields {
		path := segments(f.Variable())
		if len(path) == 0 {
			continue
		}
		parent := root
		for _, s := range path[:len(path)-1] {
			parent = parent.branch(s)
		}
		leaf := path[len(path)-1]
		for _, v := range f.Data() {
			parent.children = append(parent.children, &xnode{name: leaf, text: v, leaf: true})
		}
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := writeNode(enc, root); err != nil {
		return nil, fmt.Errorf("editor: serialize: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("editor: serialize: %w", err)
	}
	return buf.Bytes(), nil
}

func writeNode(enc *xml.Encoder, n *xnode) error {
	start := xml.StartElement{Name: xml.Name{Local: n.name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.text != "" {
		if err := enc.EncodeToken(xml.CharData(n.text)); err != nil {
			return err
		}
	}
	for _, c := range n.children {
		if err := writeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func decode(data []byte) (*xnode, error) {
	root := &xnode{}
	if len(bytes.TrimSpace(data)) == 0 {
		return root, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*xnode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xnode{name: t.Name.Local, leaf: true}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.leaf = false
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, nil
}

// values returns the trimmed text of every element reached by variable below
// the root.
func (n *xnode) values(variable string) []string {
	level := []*xnode{n}
	for _, s := range segments(variable) {
		var next []*xnode
		for _, cur := range level {
			for _, c := range cur.children {
				if c.name == s {
					next = append(next, c)
				}
			}
		}
		level = next
	}
	if len(level) == 0 {
		return nil
	}
	out := make([]string, 0, len(level))
	for _, l := range level {
		out = append(out, strings.TrimSpace(l.text))
	}
	return out
}
