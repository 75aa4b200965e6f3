// Package dom is the document tree the custom element registry walks.
//
// It models just enough of the DOM for registration and upgrade: elements
// with a namespace, local name, attributes and an is value; shadow roots
// attached to hosts; and each element's custom element state together with
// the definition it was upgraded against.
//
// # Traversal
//
// Candidate discovery and the upgrade sweep use shadow-including preorder:
//
//	doc.ForEachShadowIncludingDescendant(func(n *dom.Node) dom.TraversalDecision {
//	    if n.IsHTML() && n.LocalName == "x-foo" {
//	        candidates = append(candidates, n)
//	    }
//	    return dom.Continue
//	})
//
// # HTML
//
// Parse reads markup with golang.org/x/net/html and turns declarative
// shadow roots (<template shadowrootmode="open">) into attached shadow
// roots. Render writes them back out the same way.
package dom
