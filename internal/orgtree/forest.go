package orgtree

import "sort"

// TreeNode is a display node of the nested forest.
type TreeNode[T Node] struct {
	Value    T              `json:"value"`
	Children []*TreeNode[T] `json:"children,omitempty"`
}

// BuildForest nests a flat node list by parent id. The input may contain
// several roots: any node whose parent is absent from the list becomes a
// root. Runs in O(n) over an id index.
func BuildForest[T Node](nodes []T) []*TreeNode[T] {
	index := make(map[int64]*TreeNode[T], len(nodes))
	for _, node := range nodes {
		index[node.NodeID()] = &TreeNode[T]{Value: node}
	}

	var roots []*TreeNode[T]

	for _, node := range nodes {
		entry := index[node.NodeID()]

		parent, ok := index[node.NodeParentID()]
		if !ok {
			roots = append(roots, entry)
			continue
		}

		parent.Children = append(parent.Children, entry)
	}

	return roots
}

// SortForest orders sibling groups in place using less on the node values.
func SortForest[T Node](forest []*TreeNode[T], less func(a, b T) bool) {
	sort.SliceStable(forest, func(i, j int) bool {
		return less(forest[i].Value, forest[j].Value)
	})

	for _, node := range forest {
		SortForest(node.Children, less)
	}
}
