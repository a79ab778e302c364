// Package view builds the HTML fragments that the designer canvas, the fill
// page and the properties panel are rendered into. Fragments are plain
// *html.Node trees so the desktop shell and the HTTP fill endpoint share them.
package view

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is a single HTML attribute.
type Attr struct {
	Key, Val string
}

// A builds an attribute.
func A(key, val string) Attr { return Attr{Key: key, Val: val} }

// Class builds a class attribute from the non-empty names.
func Class(names ...string) Attr {
	kept := names[:0:0]
	for _, n := range names {
		if n != "" {
			kept = append(kept, n)
		}
	}
	return Attr{Key: "class", Val: strings.Join(kept, " ")}
}

// El builds an element. Children may be *html.Node, string (text), Attr,
// []*html.Node or nil (ignored).
func El(tag string, parts ...any) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, p := range parts {
		switch v := p.(type) {
		case nil:
		case Attr:
			n.Attr = append(n.Attr, html.Attribute{Key: v.Key, Val: v.Val})
		case []Attr:
			for _, a := range v {
				n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
			}
		case string:
			n.AppendChild(Text(v))
		case *html.Node:
			if v != nil {
				n.AppendChild(v)
			}
		case []*html.Node:
			for _, c := range v {
				if c != nil {
					n.AppendChild(c)
				}
			}
		}
	}
	return n
}

// Text builds a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// When returns attr if cond holds, otherwise nil so El skips it.
func When(cond bool, attr Attr) any {
	if cond {
		return attr
	}
	return nil
}

// Render serializes a fragment.
func Render(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// GetAttr returns the value of key on n.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Find returns the first node in document order for which match holds.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in document order for which match holds.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ByAttr matches element nodes carrying key=val.
func ByAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := GetAttr(n, key)
		return ok && v == val
	}
}

// HasAttr matches element nodes carrying key.
func HasAttr(key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		_, ok := GetAttr(n, key)
		return ok
	}
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}
