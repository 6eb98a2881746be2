package orgtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	id        int64
	parentID  int64
	ancestors string
}

func (n fakeNode) NodeID() int64         { return n.id }
func (n fakeNode) NodeParentID() int64   { return n.parentID }
func (n fakeNode) NodeAncestors() string { return n.ancestors }

func TestSplitJoin(t *testing.T) {
	tests := []struct {
		name      string
		ancestors string
		want      []int64
	}{
		{name: "empty", ancestors: "", want: nil},
		{name: "root", ancestors: "0", want: []int64{0}},
		{name: "chain", ancestors: "0,100,101", want: []int64{0, 100, 101}},
		{name: "blank tokens skipped", ancestors: "0,,101", want: []int64{0, 101}},
		{name: "spaces tolerated", ancestors: "0, 100", want: []int64{0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.ancestors))
		})
	}

	assert.Equal(t, "0,100,101", Join([]int64{0, 100, 101}))
	assert.Equal(t, "", Join(nil))
}

func TestChildAncestors(t *testing.T) {
	root := fakeNode{id: 100, parentID: RootParentID, ancestors: RootAncestors}
	assert.Equal(t, "0,100", ChildAncestors(root))

	child := fakeNode{id: 101, parentID: 100, ancestors: "0,100"}
	assert.Equal(t, "0,100,101", ChildAncestors(child))
}

func TestContainsID(t *testing.T) {
	// Token-wise: id 1 must not match inside "0,12".
	assert.False(t, ContainsID("0,12", 1))
	assert.True(t, ContainsID("0,12", 12))
	assert.True(t, ContainsID("0,1,12", 1))
	assert.False(t, ContainsID("", 1))
}

func TestReplacePrefix(t *testing.T) {
	t.Run("replaces full token prefix", func(t *testing.T) {
		got, ok := ReplacePrefix("0,100,101", "0,100", "0,200")
		require.True(t, ok)
		assert.Equal(t, "0,200,101", got)
	})

	t.Run("whole path is the prefix", func(t *testing.T) {
		got, ok := ReplacePrefix("0,100", "0,100", "0,200,300")
		require.True(t, ok)
		assert.Equal(t, "0,200,300", got)
	})

	t.Run("textual prefix of a different id does not match", func(t *testing.T) {
		// "0,1" is a string prefix of "0,12,..." but not a token prefix.
		got, ok := ReplacePrefix("0,12,13", "0,1", "0,9")
		assert.False(t, ok)
		assert.Equal(t, "0,12,13", got)
	})

	t.Run("longer prefix than path does not match", func(t *testing.T) {
		_, ok := ReplacePrefix("0,100", "0,100,101", "0")
		assert.False(t, ok)
	})
}

func TestValidateMove(t *testing.T) {
	a := fakeNode{id: 100, parentID: 0, ancestors: "0"}
	b := fakeNode{id: 101, parentID: 100, ancestors: "0,100"}
	c := fakeNode{id: 102, parentID: 101, ancestors: "0,100,101"}

	t.Run("self parent rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateMove(b, b), ErrSelfParent)
	})

	t.Run("descendant parent rejected", func(t *testing.T) {
		assert.ErrorIs(t, ValidateMove(a, b), ErrSelfParent)
		assert.ErrorIs(t, ValidateMove(a, c), ErrSelfParent)
	})

	t.Run("valid move accepted", func(t *testing.T) {
		assert.NoError(t, ValidateMove(c, a))
	})
}

func TestBuildForest(t *testing.T) {
	nodes := []fakeNode{
		{id: 100, parentID: 0, ancestors: "0"},
		{id: 101, parentID: 100, ancestors: "0,100"},
		{id: 102, parentID: 100, ancestors: "0,100"},
		{id: 103, parentID: 102, ancestors: "0,100,102"},
		// Second root: parent not present in the list.
		{id: 200, parentID: 0, ancestors: "0"},
		// Orphan subtree: parent 300 is not in the list, becomes a root.
		{id: 301, parentID: 300, ancestors: "0,300"},
	}

	forest := BuildForest(nodes)
	require.Len(t, forest, 3)

	byID := map[int64]*TreeNode[fakeNode]{}
	for _, root := range forest {
		byID[root.Value.id] = root
	}

	require.Contains(t, byID, int64(100))
	require.Contains(t, byID, int64(200))
	require.Contains(t, byID, int64(301))

	root := byID[100]
	require.Len(t, root.Children, 2)

	var grand *TreeNode[fakeNode]

	for _, child := range root.Children {
		if child.Value.id == 102 {
			grand = child
		}
	}

	require.NotNil(t, grand)
	require.Len(t, grand.Children, 1)
	assert.Equal(t, int64(103), grand.Children[0].Value.id)
}

func TestSortForest(t *testing.T) {
	nodes := []fakeNode{
		{id: 2, parentID: 0},
		{id: 1, parentID: 0},
		{id: 11, parentID: 1},
		{id: 10, parentID: 1},
	}

	forest := BuildForest(nodes)
	SortForest(forest, func(a, b fakeNode) bool { return a.id < b.id })

	require.Len(t, forest, 2)
	assert.Equal(t, int64(1), forest[0].Value.id)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, int64(10), forest[0].Children[0].Value.id)
}
