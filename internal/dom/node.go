// Package dom parses HTML snapshots reported by a live page and queries
// them with CSS selectors.
package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selector is a compiled CSS selector group
type Selector struct {
	raw   string
	group cascadia.SelectorGroup
}

// Compile parses a CSS selector group
func Compile(raw string) (Selector, error) {
	group, err := cascadia.ParseGroup(raw)
	if err != nil {
		return Selector{}, fmt.Errorf("compile selector %q: %w", raw, err)
	}
	return Selector{raw: raw, group: group}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(raw string) Selector {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the selector source
func (s Selector) String() string {
	return s.raw
}

func (s Selector) match(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && s.group != nil && s.group.Match(n)
}

// Node is an element of a parsed snapshot
type Node struct {
	n *html.Node
}

// Wrap wraps a parsed html node
func Wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{n: n}
}

// Parse parses serialized elements as if they were children of <body> and
// returns the top-level elements in order.
func Parse(fragment string) ([]*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	root := &html.Node{Type: html.DocumentNode}
	var nodes []*Node
	for _, n := range parsed {
		root.AppendChild(n)
		if n.Type == html.ElementNode {
			nodes = append(nodes, &Node{n: n})
		}
	}
	return nodes, nil
}

// ParseOne parses a fragment holding a single element
func ParseOne(fragment string) (*Node, error) {
	nodes, err := Parse(fragment)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("parse fragment: no element")
	}
	return nodes[0], nil
}

// HTML returns the underlying html node
func (n *Node) HTML() *html.Node {
	return n.n
}

// Tag returns the lower-case tag name
func (n *Node) Tag() string {
	return n.n.Data
}

// Attr returns the value of an attribute
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Matches reports whether the node itself matches sel
func (n *Node) Matches(sel Selector) bool {
	return sel.match(n.n)
}

// Find returns the first descendant matching sel in document order.
// The node itself is not considered.
func (n *Node) Find(sel Selector) *Node {
	var found *html.Node
	walkDescendants(n.n, func(c *html.Node) bool {
		if sel.match(c) {
			found = c
			return false
		}
		return true
	})
	return Wrap(found)
}

// FindAll returns every descendant matching sel in document order
func (n *Node) FindAll(sel Selector) []*Node {
	var result []*Node
	walkDescendants(n.n, func(c *html.Node) bool {
		if sel.match(c) {
			result = append(result, &Node{n: c})
		}
		return true
	})
	return result
}

// FindOrSelf returns the node when it matches sel, otherwise Find(sel)
func (n *Node) FindOrSelf(sel Selector) *Node {
	if n.Matches(sel) {
		return n
	}
	return n.Find(sel)
}

// walkDescendants visits descendants depth-first until visit returns false
func walkDescendants(n *html.Node, visit func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !visit(c) {
			return false
		}
		if !walkDescendants(c, visit) {
			return false
		}
	}
	return true
}

var blockElements = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
}

// Text approximates the rendered text of the node. Source whitespace is
// collapsed to single spaces, <br> and block elements break lines, and
// blank lines are dropped. Script and style content is skipped.
func (n *Node) Text() string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(strings.Map(func(r rune) rune {
				if r == '\n' || r == '\r' || r == '\t' || r == '\f' {
					return ' '
				}
				return r
			}, c.Data))
			return
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			case atom.Br:
				b.WriteString("\n")
				return
			}
		}

		block := c.Type == html.ElementNode && blockElements[c.DataAtom]
		if block {
			b.WriteString("\n")
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			collect(cc)
		}
		if block {
			b.WriteString("\n")
		}
	}
	collect(n.n)

	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
