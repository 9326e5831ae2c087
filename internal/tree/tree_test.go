package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidworks/collab-api/internal/models"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
)

func seedForest(t *testing.T) (*Forest, *models.CommentNode, *models.CommentNode, *models.CommentNode) {
	t.Helper()
	f := NewForest()

	root := f.AddRoot(models.CommentNode{SectionID: "s1", AuthorID: "user-1", Content: "root"})
	reply, err := f.AddReply(root.ID, models.CommentNode{AuthorID: "user-2", Content: "reply"})
	require.NoError(t, err)
	nested, err := f.AddReply(reply.ID, models.CommentNode{AuthorID: "user-1", Content: "nested"})
	require.NoError(t, err)
	return f, root, reply, nested
}

func TestAddReplyNestsUnderParentAnywhere(t *testing.T) {
	f, root, reply, nested := seedForest(t)

	sibling := f.AddRoot(models.CommentNode{SectionID: "s1", AuthorID: "user-3", Content: "other thread"})

	roots := f.Roots("s1")
	require.Len(t, roots, 2)
	assert.Equal(t, root.ID, roots[0].ID)
	assert.Equal(t, sibling.ID, roots[1].ID)

	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, reply.ID, roots[0].Replies[0].ID)
	require.Len(t, roots[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, roots[0].Replies[0].Replies[0].ID)
	assert.Equal(t, "s1", nested.SectionID)

	assert.Empty(t, roots[1].Replies)
	assert.Equal(t, models.CommentCounts{Total: 4, Unresolved: 4}, f.Counts("s1"))
}

func TestSiblingOrderPreserved(t *testing.T) {
	f := NewForest()
	root := f.AddRoot(models.CommentNode{SectionID: "s1", Content: "root"})
	first, err := f.AddReply(root.ID, models.CommentNode{Content: "first"})
	require.NoError(t, err)
	second, err := f.AddReply(root.ID, models.CommentNode{Content: "second"})
	require.NoError(t, err)

	require.NoError(t, f.SetResolved(first.ID, true))

	roots := f.Roots("s1")
	require.Len(t, roots[0].Replies, 2)
	assert.Equal(t, first.ID, roots[0].Replies[0].ID)
	assert.Equal(t, second.ID, roots[0].Replies[1].ID)
}

func TestDeleteRemovesExactSubtree(t *testing.T) {
	f, root, reply, _ := seedForest(t)
	sibling, err := f.AddReply(root.ID, models.CommentNode{Content: "sibling"})
	require.NoError(t, err)

	removed, err := f.Delete(reply.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	roots := f.Roots("s1")
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, sibling.ID, roots[0].Replies[0].ID)
	assert.Equal(t, "root", roots[0].Content)
	assert.Equal(t, models.CommentCounts{Total: 2, Unresolved: 2}, f.Counts("s1"))

	_, err = f.Get(reply.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDeleteCountsResolvedNodesAccurately(t *testing.T) {
	f, _, reply, nested := seedForest(t)
	require.NoError(t, f.SetResolved(nested.ID, true))
	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 2}, f.Counts("s1"))

	removed, err := f.Delete(reply.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, models.CommentCounts{Total: 1, Unresolved: 1}, f.Counts("s1"))
}

func TestResolveIsPerNode(t *testing.T) {
	f, root, reply, nested := seedForest(t)

	require.NoError(t, f.SetResolved(reply.ID, true))

	got, err := f.Get(reply.ID)
	require.NoError(t, err)
	assert.True(t, got.IsResolved)

	parent, err := f.Get(root.ID)
	require.NoError(t, err)
	assert.False(t, parent.IsResolved)
	child, err := f.Get(nested.ID)
	require.NoError(t, err)
	assert.False(t, child.IsResolved)

	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 2}, f.Counts("s1"))

	// Idempotent flips do not skew counters.
	require.NoError(t, f.SetResolved(reply.ID, true))
	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 2}, f.Counts("s1"))
	require.NoError(t, f.SetResolved(reply.ID, false))
	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 3}, f.Counts("s1"))
}

func TestUpdateLeavesStructureUnchanged(t *testing.T) {
	f, _, reply, nested := seedForest(t)

	updated, err := f.Update(reply.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	roots := f.Roots("s1")
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, "edited", roots[0].Replies[0].Content)
	assert.Equal(t, nested.ID, roots[0].Replies[0].Replies[0].ID)
	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 3}, f.Counts("s1"))
}

func TestUnknownIDsLeaveTreeUntouched(t *testing.T) {
	f, _, _, _ := seedForest(t)

	_, err := f.Update("missing", "x")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = f.AddReply("missing", models.CommentNode{Content: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = f.Delete("missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.True(t, appErrors.Is(f.SetResolved("missing", true), appErrors.ErrNotFound))

	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 3}, f.Counts("s1"))
}

func TestHydrateRebuildsSectionFromSnapshot(t *testing.T) {
	f := NewForest()
	f.Hydrate("s1", []*models.CommentNode{
		{
			ID: "c1", Content: "root", IsResolved: true,
			Replies: []*models.CommentNode{
				{ID: "c2", Content: "reply"},
			},
		},
		{ID: "c3", Content: "second root"},
	})

	assert.Equal(t, models.CommentCounts{Total: 3, Unresolved: 2}, f.Counts("s1"))
	roots := f.Roots("s1")
	require.Len(t, roots, 2)
	assert.Equal(t, "c1", roots[0].ID)
	require.Len(t, roots[0].Replies, 1)

	// Re-hydrating replaces, never duplicates.
	f.Hydrate("s1", []*models.CommentNode{{ID: "c9", Content: "fresh"}})
	assert.Equal(t, models.CommentCounts{Total: 1, Unresolved: 1}, f.Counts("s1"))
	_, err := f.Get("c1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
