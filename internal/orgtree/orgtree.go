// Package orgtree maintains materialized ancestor paths for hierarchical
// entities (departments, workflow categories).
//
// Every node stores the ids of its ancestors, root first, as a
// comma-delimited string. The root sentinel "0" stands for the virtual
// parent of top-level nodes, so a node directly under the root has
// ancestors "0" and a grandchild has "0,<rootNodeID>".
//
// All matching is done token-wise, never by raw substring, so ids that
// share a textual prefix ("1" vs "12") cannot corrupt unrelated paths.
package orgtree

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// RootParentID is the parent id of top-level nodes.
	RootParentID int64 = 0

	// Delimiter separates ids within an ancestor path.
	Delimiter = ","
)

// RootAncestors is the ancestor path of top-level nodes.
var RootAncestors = strconv.FormatInt(RootParentID, 10)

var (
	// ErrSelfParent is returned when a node is re-parented under itself or
	// one of its descendants.
	ErrSelfParent = errors.New("orgtree: node cannot be its own ancestor")

	// ErrParentDisabled is returned when inserting under a disabled parent.
	ErrParentDisabled = errors.New("orgtree: parent node is disabled")

	// ErrHasChildren is returned when deleting a node that still has
	// children.
	ErrHasChildren = errors.New("orgtree: node has child nodes")

	// ErrInUse is returned when deleting a node that other entities still
	// reference.
	ErrInUse = errors.New("orgtree: node is referenced by other entities")
)

// Node is the read surface the tree algorithms need from an entity.
type Node interface {
	NodeID() int64
	NodeParentID() int64
	NodeAncestors() string
}

// Split parses an ancestor path into ids. Blank tokens are skipped.
func Split(ancestors string) []int64 {
	if ancestors == "" {
		return nil
	}

	parts := strings.Split(ancestors, Delimiter)
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return ids
}

// Join serializes ids into an ancestor path.
func Join(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return strings.Join(parts, Delimiter)
}

// ChildAncestors computes the ancestor path of a child of parent:
// the parent's own path followed by the parent's id.
func ChildAncestors(parent Node) string {
	return parent.NodeAncestors() + Delimiter + strconv.FormatInt(parent.NodeID(), 10)
}

// ContainsID reports whether the path contains id as a full token.
func ContainsID(ancestors string, id int64) bool {
	for _, got := range Split(ancestors) {
		if got == id {
			return true
		}
	}

	return false
}

// ReplacePrefix substitutes oldPrefix with newPrefix at the head of the
// path. The prefix must match as a full token sequence; if it does not,
// the path is returned unchanged and ok is false.
func ReplacePrefix(ancestors, oldPrefix, newPrefix string) (string, bool) {
	oldIDs := Split(oldPrefix)
	ids := Split(ancestors)

	if len(oldIDs) > len(ids) {
		return ancestors, false
	}

	for i, id := range oldIDs {
		if ids[i] != id {
			return ancestors, false
		}
	}

	rest := ids[len(oldIDs):]
	if len(rest) == 0 {
		return newPrefix, true
	}

	return newPrefix + Delimiter + Join(rest), true
}

// ValidateMove rejects re-parenting a node under itself or under any of
// its descendants, which would introduce a cycle.
func ValidateMove(node Node, newParent Node) error {
	if newParent.NodeID() == node.NodeID() {
		return ErrSelfParent
	}

	if ContainsID(newParent.NodeAncestors(), node.NodeID()) {
		return ErrSelfParent
	}

	return nil
}
