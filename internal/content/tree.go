package content

// Tree is the whole document tree handed to the build passes.
type Tree struct {
	Root *Node
}

// Visitor is called once per node; a non-nil error stops the walk.
type Visitor func(n *Node) error

// Walk visits every node depth-first, parent before children.
func (t *Tree) Walk(fn Visitor) error {
	if t == nil || t.Root == nil {
		return nil
	}
	return walk(t.Root, fn)
}

func walk(n *Node, fn Visitor) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Pages returns every node for which IsPage holds, in walk order.
func (t *Tree) Pages() []*Node {
	var out []*Node
	_ = t.Walk(func(n *Node) error {
		if n.IsPage() {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// FromNodes builds a tree whose root children are nodes, in the given order.
// A node with an empty path becomes the root itself.
func FromNodes(nodes ...*Node) *Tree {
	root := &Node{Slug: RootSlug}
	for _, n := range nodes {
		if n.IsRoot() {
			n.Children = append(n.Children, root.Children...)
			root = n
			continue
		}
		root.Children = append(root.Children, n)
	}
	return &Tree{Root: root}
}
