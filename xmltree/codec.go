package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoRoot is returned when the input holds no element.
var ErrNoRoot = errors.New("xmltree: document has no root element")

// Parse builds a Document from XML text.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	d := newDocument(opts...)
	dec := xml.NewDecoder(r)
	stack := []NodeID{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			parent := InvalidNode
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			} else if d.root != InvalidNode {
				return nil, fmt.Errorf("xmltree: parse: multiple root elements")
			}
			id := d.alloc(Name{Space: t.Name.Space, Local: t.Name.Local}, parent)
			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					continue
				}
				d.nodes[id].attrs = append(d.nodes[id].attrs, Attr{Name: Name{Space: a.Name.Space, Local: a.Name.Local}, Value: a.Value})
			}
			if parent == InvalidNode {
				d.root = id
			} else {
				d.nodes[parent].children = append(d.nodes[parent].children, id)
			}
			stack = append(stack, id)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				d.nodes[top].text += string(t)
			}
		}
	}
	if d.root == InvalidNode {
		return nil, ErrNoRoot
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// ParseFile reads and parses the file at path.
func ParseFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, opts...)
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

// WriteTo serializes the live tree as indented XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if d.Root() == InvalidNode {
		return 0, ErrNoRoot
	}
	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	if err := d.encode(enc, d.root); err != nil {
		return cw.n, err
	}
	if err := enc.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (d *Document) encode(enc *xml.Encoder, n NodeID) error {
	nd := d.nodes[n]
	start := xml.StartElement{Name: xml.Name{Space: nd.name.Space, Local: nd.name.Local}}
	for _, a := range nd.attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Space: a.Name.Space, Local: a.Name.Local}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text := strings.TrimSpace(nd.text); text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	for _, c := range nd.children {
		if err := d.encode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// String renders the document; errors produce an empty string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return ""
	}
	return buf.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
