package dom

import (
	"errors"
	"strings"

	"github.com/vango-dev/elements/pkg/customname"
	"github.com/vango-dev/elements/pkg/definition"
)

// Namespaces elements can be created in.
const (
	HTMLNamespace   = "http://www.w3.org/1999/xhtml"
	SVGNamespace    = "http://www.w3.org/2000/svg"
	MathMLNamespace = "http://www.w3.org/1998/Math/MathML"
)

// NodeKind is the node type discriminator.
type NodeKind uint8

const (
	KindDocument   NodeKind = iota // Tree root
	KindElement                    // <div>, <x-foo>, etc.
	KindText                       // Character data
	KindComment                    // <!-- ... -->
	KindDoctype                    // <!DOCTYPE html>
	KindShadowRoot                 // Attached to a host element
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindDocument:
		return "Document"
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindDoctype:
		return "Doctype"
	case KindShadowRoot:
		return "ShadowRoot"
	default:
		return "Unknown"
	}
}

// State is an element's custom element state.
type State uint8

const (
	StateUncustomized State = iota
	StateUndefined
	StatePrecustomized
	StateCustom
	StateFailed
)

// String returns the state name used by the HTML standard.
func (s State) String() string {
	switch s {
	case StateUncustomized:
		return "uncustomized"
	case StateUndefined:
		return "undefined"
	case StatePrecustomized:
		return "precustomized"
	case StateCustom:
		return "custom"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ShadowRootMode is the mode a shadow root was attached with.
type ShadowRootMode string

const (
	ShadowOpen   ShadowRootMode = "open"
	ShadowClosed ShadowRootMode = "closed"
)

// Attribute is a single element attribute.
type Attribute struct {
	Namespace string
	Name      string
	Value     string
}

var (
	ErrHierarchy       = errors.New("dom: hierarchy request error")
	ErrNotFound        = errors.New("dom: node is not a child")
	ErrNotSupported    = errors.New("dom: operation not supported")
	ErrShadowAttached  = errors.New("dom: element already hosts a shadow root")
	ErrInvalidShadowOp = errors.New("dom: shadow roots cannot be inserted")
)

// Node is a document tree node. Links are maintained by the mutation
// methods; do not set them directly.
type Node struct {
	Kind      NodeKind
	Namespace string
	LocalName string
	Data      string // For KindText, KindComment and KindDoctype
	Attrs     []Attribute

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node

	shadowRoot *Node
	host       *Node
	mode       ShadowRootMode

	is         string
	state      State
	definition *definition.Definition
}

// NewDocument returns an empty document.
func NewDocument() *Node {
	return &Node{Kind: KindDocument}
}

// NewElement creates an element. HTML elements whose local name is a valid
// custom element name, or that carry an is value, start out undefined.
func NewElement(namespace, localName, is string) *Node {
	n := &Node{
		Kind:      KindElement,
		Namespace: namespace,
		LocalName: localName,
		is:        is,
	}
	if namespace == HTMLNamespace && (customname.IsValid(localName) || is != "") {
		n.state = StateUndefined
	}
	return n
}

// NewText creates a text node.
func NewText(data string) *Node {
	return &Node{Kind: KindText, Data: data}
}

// NewComment creates a comment node.
func NewComment(data string) *Node {
	return &Node{Kind: KindComment, Data: data}
}

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == KindElement
}

// IsHTML reports whether n is an element in the HTML namespace.
func (n *Node) IsHTML() bool {
	return n.IsElement() && n.Namespace == HTMLNamespace
}

// Is returns the is value the element was created with.
func (n *Node) Is() string { return n.is }

// State returns the element's custom element state.
func (n *Node) State() State { return n.state }

// SetState sets the element's custom element state.
func (n *Node) SetState(s State) { n.state = s }

// Definition returns the definition the element was upgraded against, if
// any.
func (n *Node) Definition() *definition.Definition { return n.definition }

// SetDefinition records the definition the element is being upgraded
// against. nil clears it.
func (n *Node) SetDefinition(d *definition.Definition) { n.definition = d }

// IsCustom reports whether the element is custom.
func (n *Node) IsCustom() bool { return n.state == StateCustom }

// ShadowRoot returns the attached shadow root, or nil.
func (n *Node) ShadowRoot() *Node { return n.shadowRoot }

// Host returns the host of a shadow root, or nil.
func (n *Node) Host() *Node { return n.host }

// Mode returns a shadow root's mode.
func (n *Node) Mode() ShadowRootMode { return n.mode }

// AttachShadow attaches a new shadow root to an element.
func (n *Node) AttachShadow(mode ShadowRootMode) (*Node, error) {
	if !n.IsElement() {
		return nil, ErrNotSupported
	}
	if n.shadowRoot != nil {
		return nil, ErrShadowAttached
	}
	if n.definition != nil && n.definition.DisableShadow() {
		return nil, ErrNotSupported
	}
	root := &Node{Kind: KindShadowRoot, host: n, mode: mode}
	n.shadowRoot = root
	return root, nil
}

// Root returns the root of n's tree. A shadow root is its own root.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// ShadowIncludingRoot returns the root of n's tree, following shadow hosts
// out of shadow trees.
func (n *Node) ShadowIncludingRoot() *Node {
	root := n.Root()
	for root.Kind == KindShadowRoot && root.host != nil {
		root = root.host.Root()
	}
	return root
}

// IsConnected reports whether n's shadow-including root is a document.
func (n *Node) IsConnected() bool {
	return n.ShadowIncludingRoot().Kind == KindDocument
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Namespace == "" && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute and returns its previous value.
func (n *Node) SetAttr(name, value string) (old string, had bool) {
	for i, a := range n.Attrs {
		if a.Namespace == "" && a.Name == name {
			n.Attrs[i].Value = value
			return a.Value, true
		}
	}
	n.Attrs = append(n.Attrs, Attribute{Name: name, Value: value})
	return "", false
}

// RemoveAttr removes the named attribute and returns its previous value.
func (n *Node) RemoveAttr(name string) (old string, had bool) {
	for i, a := range n.Attrs {
		if a.Namespace == "" && a.Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return a.Value, true
		}
	}
	return "", false
}

// AppendChild appends c to n's children, removing it from its current
// parent first.
func (n *Node) AppendChild(c *Node) error {
	return n.InsertBefore(c, nil)
}

// InsertBefore inserts c before ref. A nil ref appends.
func (n *Node) InsertBefore(c, ref *Node) error {
	if err := n.checkInsert(c); err != nil {
		return err
	}
	if ref != nil && ref.Parent != n {
		return ErrNotFound
	}
	if ref == c {
		ref = c.NextSibling
	}
	if c.Parent != nil {
		if err := c.Parent.RemoveChild(c); err != nil {
			return err
		}
	}

	var prev *Node
	if ref != nil {
		prev = ref.PrevSibling
	} else {
		prev = n.LastChild
	}
	if prev != nil {
		prev.NextSibling = c
	} else {
		n.FirstChild = c
	}
	if ref != nil {
		ref.PrevSibling = c
	} else {
		n.LastChild = c
	}
	c.Parent = n
	c.PrevSibling = prev
	c.NextSibling = ref
	return nil
}

// RemoveChild removes c from n's children.
func (n *Node) RemoveChild(c *Node) error {
	if c == nil || c.Parent != n {
		return ErrNotFound
	}
	if n.FirstChild == c {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	}
	if n.LastChild == c {
		n.LastChild = c.PrevSibling
	}
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
	return nil
}

func (n *Node) checkInsert(c *Node) error {
	if c == nil {
		return ErrHierarchy
	}
	switch n.Kind {
	case KindDocument, KindElement, KindShadowRoot:
	default:
		return ErrHierarchy
	}
	switch c.Kind {
	case KindDocument:
		return ErrHierarchy
	case KindShadowRoot:
		return ErrInvalidShadowOp
	}
	// c must not be a shadow-including inclusive ancestor of n.
	for a := n; a != nil; {
		if a == c {
			return ErrHierarchy
		}
		if a.Parent != nil {
			a = a.Parent
		} else {
			a = a.host
		}
	}
	return nil
}

// Children returns a snapshot of n's children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// String describes n briefly, for logs.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindElement:
		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(n.LocalName)
		if n.is != "" {
			b.WriteString(` is="`)
			b.WriteString(n.is)
			b.WriteByte('"')
		}
		b.WriteByte('>')
		return b.String()
	case KindText:
		return "#text"
	case KindComment:
		return "#comment"
	case KindShadowRoot:
		return "#shadow-root (" + string(n.mode) + ")"
	case KindDoctype:
		return "<!DOCTYPE " + n.Data + ">"
	default:
		return "#document"
	}
}
