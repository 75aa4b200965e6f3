package dom

// TraversalDecision tells a traversal whether to keep going.
type TraversalDecision uint8

const (
	Continue TraversalDecision = iota
	Break
)

// ForEachShadowIncludingInclusiveDescendant visits n and then its
// shadow-including descendants. It returns Break if visit stopped the walk.
func (n *Node) ForEachShadowIncludingInclusiveDescendant(visit func(*Node) TraversalDecision) TraversalDecision {
	if visit(n) == Break {
		return Break
	}
	return n.ForEachShadowIncludingDescendant(visit)
}

// ForEachShadowIncludingDescendant visits n's shadow-including descendants
// in shadow-including preorder: a host's shadow tree is walked right after
// the host, before the host's children.
func (n *Node) ForEachShadowIncludingDescendant(visit func(*Node) TraversalDecision) TraversalDecision {
	if n.shadowRoot != nil {
		if n.shadowRoot.ForEachShadowIncludingInclusiveDescendant(visit) == Break {
			return Break
		}
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.ForEachShadowIncludingInclusiveDescendant(visit) == Break {
			return Break
		}
		// Prefer the live sibling when c is still attached.
		if c.Parent == n {
			next = c.NextSibling
		}
		c = next
	}
	return Continue
}

// Elements returns the elements among n's shadow-including inclusive
// descendants, in shadow-including tree order.
func (n *Node) Elements() []*Node {
	var out []*Node
	n.ForEachShadowIncludingInclusiveDescendant(func(c *Node) TraversalDecision {
		if c.IsElement() {
			out = append(out, c)
		}
		return Continue
	})
	return out
}
