// 指示: miu200521358
package model

import "testing"

func TestNewNodeDefaults(t *testing.T) {
	node := NewNode("body")
	if !node.Visible {
		t.Fatalf("new node should be visible")
	}
	if !node.FrustumCulled {
		t.Fatalf("new node should default to frustum culled")
	}
	if node.Transform.Scale.X != 1 || node.Transform.Scale.Y != 1 || node.Transform.Scale.Z != 1 {
		t.Fatalf("new node should have identity scale: got=%+v", node.Transform.Scale)
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	first := NewNode("a")
	second := NewNode("b")
	if first.ID() == second.ID() {
		t.Fatalf("node ids should be unique")
	}
}

func TestAddChildReparents(t *testing.T) {
	oldParent := NewNode("old")
	newParent := NewNode("new")
	child := NewNode("child")

	oldParent.AddChild(child)
	newParent.AddChild(child)

	if child.Parent() != newParent {
		t.Fatalf("child should be reparented")
	}
	if len(oldParent.Children()) != 0 {
		t.Fatalf("old parent should no longer hold the child")
	}
	if len(newParent.Children()) != 1 {
		t.Fatalf("new parent should hold the child")
	}
}

func TestTraversePreOrder(t *testing.T) {
	root := NewNode("root")
	left := NewNode("left")
	right := NewNode("right")
	grandchild := NewNode("grandchild")
	left.AddChild(grandchild)
	root.AddChild(left)
	root.AddChild(right)

	visited := make([]string, 0)
	root.Traverse(func(node *Node) {
		visited = append(visited, node.Name)
	})

	want := []string{"root", "left", "grandchild", "right"}
	if len(visited) != len(want) {
		t.Fatalf("visit count mismatch: got=%d want=%d", len(visited), len(want))
	}
	for position, name := range want {
		if visited[position] != name {
			t.Fatalf("traversal order mismatch at %d: got=%s want=%s", position, visited[position], name)
		}
	}
}

func TestFindByNameReturnsFirstMatch(t *testing.T) {
	root := NewNode("root")
	first := NewNode("dup")
	second := NewNode("dup")
	root.AddChild(first)
	root.AddChild(second)

	if got := root.FindByName("dup"); got != first {
		t.Fatalf("first pre-order match should be returned")
	}
	if got := root.FindByName("missing"); got != nil {
		t.Fatalf("missing name should return nil")
	}
}

func TestCountNodes(t *testing.T) {
	root := NewNode("root")
	child := NewNode("child")
	child.AddChild(NewNode("grandchild"))
	root.AddChild(child)

	if got := root.CountNodes(); got != 3 {
		t.Fatalf("node count mismatch: got=%d want=3", got)
	}
}
