package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nodefixture/app/internal/domain/node"
)

// MustCreateNode creates a node and fails the test on error.
func (n *Nodes) MustCreateNode(t testing.TB, values node.Values) *node.Node {
	t.Helper()

	created, err := n.CreateNode(context.Background(), values)
	require.NoError(t, err)
	require.NotNil(t, created)

	return created
}

// RequireNodeByTitle looks up a node by title, bypassing the cache, and fails the test when none exists.
func (n *Nodes) RequireNodeByTitle(t testing.TB, title string) *node.Node {
	t.Helper()

	found, err := n.FindByTitle(context.Background(), title, true)
	require.NoError(t, err)
	require.NotNil(t, found, "no node titled %q", title)

	return found
}
