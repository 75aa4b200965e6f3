package dom

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const shadowRootModeAttr = "shadowrootmode"

// Parse parses an HTML document. Declarative shadow root templates become
// shadow roots attached to their parent element.
func Parse(r io.Reader) (*Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := NewDocument()
	if err := convertChildren(doc, root); err != nil {
		return nil, err
	}
	return doc, nil
}

func convertChildren(dst *Node, src *html.Node) error {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if mode, ok := declarativeShadowMode(c); ok && dst.IsElement() && dst.shadowRoot == nil {
			shadow, err := dst.AttachShadow(mode)
			if err != nil {
				return err
			}
			if err := convertChildren(shadow, c); err != nil {
				return err
			}
			continue
		}

		n := convertNode(c)
		if n == nil {
			continue
		}
		if err := dst.AppendChild(n); err != nil {
			return err
		}
		if err := convertChildren(n, c); err != nil {
			return err
		}
	}
	return nil
}

func convertNode(src *html.Node) *Node {
	switch src.Type {
	case html.ElementNode:
		ns := namespaceURI(src.Namespace)
		var is string
		if ns == HTMLNamespace {
			for _, a := range src.Attr {
				if a.Namespace == "" && a.Key == "is" {
					is = a.Val
				}
			}
		}
		n := NewElement(ns, src.Data, is)
		for _, a := range src.Attr {
			n.Attrs = append(n.Attrs, Attribute{Namespace: a.Namespace, Name: a.Key, Value: a.Val})
		}
		return n
	case html.TextNode:
		return NewText(src.Data)
	case html.CommentNode:
		return NewComment(src.Data)
	case html.DoctypeNode:
		return &Node{Kind: KindDoctype, Data: src.Data}
	default:
		return nil
	}
}

func declarativeShadowMode(n *html.Node) (ShadowRootMode, bool) {
	if n.Type != html.ElementNode || n.DataAtom != atom.Template || n.Namespace != "" {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != shadowRootModeAttr {
			continue
		}
		switch ShadowRootMode(a.Val) {
		case ShadowOpen, ShadowClosed:
			return ShadowRootMode(a.Val), true
		}
	}
	return "", false
}

func namespaceURI(parserNS string) string {
	switch parserNS {
	case "svg":
		return SVGNamespace
	case "math":
		return MathMLNamespace
	case "":
		return HTMLNamespace
	default:
		return parserNS
	}
}

func parserNamespace(uri string) string {
	switch uri {
	case SVGNamespace:
		return "svg"
	case MathMLNamespace:
		return "math"
	case HTMLNamespace:
		return ""
	default:
		return uri
	}
}

// Render writes n as HTML. Shadow roots are written as declarative shadow
// root templates.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

func toHTML(n *Node) *html.Node {
	var out *html.Node
	switch n.Kind {
	case KindDocument:
		out = &html.Node{Type: html.DocumentNode}
	case KindText:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case KindComment:
		return &html.Node{Type: html.CommentNode, Data: n.Data}
	case KindDoctype:
		return &html.Node{Type: html.DoctypeNode, Data: n.Data}
	case KindShadowRoot:
		out = &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Template,
			Data:     "template",
			Attr:     []html.Attribute{{Key: shadowRootModeAttr, Val: string(n.mode)}},
		}
	default:
		out = &html.Node{
			Type:      html.ElementNode,
			DataAtom:  atom.Lookup([]byte(n.LocalName)),
			Data:      n.LocalName,
			Namespace: parserNamespace(n.Namespace),
		}
		for _, a := range n.Attrs {
			out.Attr = append(out.Attr, html.Attribute{Namespace: a.Namespace, Key: a.Name, Val: a.Value})
		}
		if n.shadowRoot != nil {
			out.AppendChild(toHTML(n.shadowRoot))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(toHTML(c))
	}
	return out
}
