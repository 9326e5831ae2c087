package tree

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bidworks/collab-api/internal/models"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
)

// Forest holds the threaded comments of one entity as an arena of nodes
// addressed by id, with ordered child id lists per node and ordered root id
// lists per section. Locating a node anywhere in the forest is a map lookup;
// no whole-tree copies are made on mutation.
type Forest struct {
	mu     sync.RWMutex
	nodes  map[string]*node
	roots  map[string][]string
	counts map[string]models.CommentCounts
}

type node struct {
	comment  models.CommentNode
	parentID string
	children []string
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{
		nodes:  make(map[string]*node),
		roots:  make(map[string][]string),
		counts: make(map[string]models.CommentCounts),
	}
}

// Hydrate replaces a section's tree with the nested snapshot from the remote
// authority, preserving sibling order.
func (f *Forest) Hydrate(sectionID string, comments []*models.CommentNode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dropSectionLocked(sectionID)
	for _, c := range comments {
		f.indexLocked(sectionID, "", c)
	}
}

func (f *Forest) dropSectionLocked(sectionID string) {
	var drop func(id string)
	drop = func(id string) {
		n, ok := f.nodes[id]
		if !ok {
			return
		}
		for _, child := range n.children {
			drop(child)
		}
		delete(f.nodes, id)
	}
	for _, id := range f.roots[sectionID] {
		drop(id)
	}
	delete(f.roots, sectionID)
	delete(f.counts, sectionID)
}

func (f *Forest) indexLocked(sectionID, parentID string, c *models.CommentNode) {
	flat := *c
	flat.SectionID = sectionID
	flat.Replies = nil

	n := &node{comment: flat, parentID: parentID}
	f.nodes[c.ID] = n
	if parentID == "" {
		f.roots[sectionID] = append(f.roots[sectionID], c.ID)
	} else {
		parent := f.nodes[parentID]
		parent.children = append(parent.children, c.ID)
	}

	counts := f.counts[sectionID]
	counts.Total++
	if !c.IsResolved {
		counts.Unresolved++
	}
	f.counts[sectionID] = counts

	for _, reply := range c.Replies {
		f.indexLocked(sectionID, c.ID, reply)
	}
}

// AddRoot appends a new top-level comment to a section.
func (f *Forest) AddRoot(c models.CommentNode) *models.CommentNode {
	f.mu.Lock()
	defer f.mu.Unlock()

	prepared := f.prepareLocked(c)
	n := &node{comment: prepared}
	f.nodes[prepared.ID] = n
	f.roots[prepared.SectionID] = append(f.roots[prepared.SectionID], prepared.ID)
	f.bumpLocked(prepared.SectionID, 1, 1)

	out := prepared
	return &out
}

// AddReply appends a reply under the parent, wherever the parent sits in the
// forest. The reply inherits the parent's section.
func (f *Forest) AddReply(parentID string, c models.CommentNode) (*models.CommentNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parent, ok := f.nodes[parentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "parent comment not found")
	}
	c.SectionID = parent.comment.SectionID

	prepared := f.prepareLocked(c)
	n := &node{comment: prepared, parentID: parentID}
	f.nodes[prepared.ID] = n
	parent.children = append(parent.children, prepared.ID)
	f.bumpLocked(prepared.SectionID, 1, 1)

	out := prepared
	return &out, nil
}

func (f *Forest) prepareLocked(c models.CommentNode) models.CommentNode {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.IsResolved = false
	c.Replies = nil
	return c
}

// Update replaces a comment's content in place. The rest of the tree is
// structurally untouched.
func (f *Forest) Update(commentID, content string) (*models.CommentNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[commentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	n.comment.Content = content
	out := n.comment
	return &out, nil
}

// SetResolved flips a single node's resolution state. Descendants and
// ancestors are unaffected.
func (f *Forest) SetResolved(commentID string, resolved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[commentID]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if n.comment.IsResolved == resolved {
		return nil
	}
	n.comment.IsResolved = resolved

	counts := f.counts[n.comment.SectionID]
	if resolved {
		counts.Unresolved--
	} else {
		counts.Unresolved++
	}
	f.counts[n.comment.SectionID] = counts
	return nil
}

// Delete removes the comment and its entire reply subtree in one operation,
// returning the number of removed nodes. Counters decrement by the exact
// number of removed nodes, and unresolved only by the removed nodes that
// were actually unresolved.
func (f *Forest) Delete(commentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[commentID]
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	sectionID := n.comment.SectionID

	removed, unresolved := 0, 0
	var prune func(id string)
	prune = func(id string) {
		current, ok := f.nodes[id]
		if !ok {
			return
		}
		for _, child := range current.children {
			prune(child)
		}
		if !current.comment.IsResolved {
			unresolved++
		}
		removed++
		delete(f.nodes, id)
	}
	prune(commentID)

	if n.parentID == "" {
		f.roots[sectionID] = removeID(f.roots[sectionID], commentID)
	} else if parent, ok := f.nodes[n.parentID]; ok {
		parent.children = removeID(parent.children, commentID)
	}

	f.bumpLocked(sectionID, -removed, -unresolved)
	return removed, nil
}

// Roots materializes a section's nested comment view, preserving sibling
// insertion order.
func (f *Forest) Roots(sectionID string) []*models.CommentNode {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]*models.CommentNode, 0, len(f.roots[sectionID]))
	for _, id := range f.roots[sectionID] {
		out = append(out, f.materializeLocked(id))
	}
	return out
}

func (f *Forest) materializeLocked(id string) *models.CommentNode {
	n := f.nodes[id]
	c := n.comment
	c.Replies = make([]*models.CommentNode, 0, len(n.children))
	for _, child := range n.children {
		c.Replies = append(c.Replies, f.materializeLocked(child))
	}
	return &c
}

// Get returns a flat copy of one comment without its replies.
func (f *Forest) Get(commentID string) (*models.CommentNode, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n, ok := f.nodes[commentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	out := n.comment
	return &out, nil
}

// SectionOf returns the section owning a comment.
func (f *Forest) SectionOf(commentID string) (string, error) {
	c, err := f.Get(commentID)
	if err != nil {
		return "", err
	}
	return c.SectionID, nil
}

// Counts returns the per-section totals.
func (f *Forest) Counts(sectionID string) models.CommentCounts {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.counts[sectionID]
}

func (f *Forest) bumpLocked(sectionID string, total, unresolved int) {
	counts := f.counts[sectionID]
	counts.Total += total
	counts.Unresolved += unresolved
	f.counts[sectionID] = counts
}

func removeID(ids []string, target string) []string {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
