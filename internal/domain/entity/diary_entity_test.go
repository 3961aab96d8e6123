package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiaryEntryLookup(t *testing.T) {
	t.Parallel()

	d := &Diary{Entries: []Entry{{ID: "e1", Text: "one"}, {ID: "e2", Text: "two"}}}

	e := d.Entry("e2")
	require.NotNil(t, e)
	assert.Equal(t, "two", e.Text)

	// The pointer aliases the slice element, mutations stick.
	e.Text = "changed"
	assert.Equal(t, "changed", d.Entries[1].Text)

	assert.Nil(t, d.Entry("missing"))
}

func TestDiaryRemoveEntry(t *testing.T) {
	t.Parallel()

	d := &Diary{Entries: []Entry{{ID: "e1"}, {ID: "e2"}}}
	assert.True(t, d.RemoveEntry("e1"))
	assert.Len(t, d.Entries, 1)
	assert.Equal(t, "e2", d.Entries[0].ID)
	assert.False(t, d.RemoveEntry("e1"))
}

func TestRemoveComment(t *testing.T) {
	t.Parallel()

	d := &Diary{Comments: []Comment{{ID: "c1"}, {ID: "c2"}}}
	assert.True(t, d.RemoveComment("c2"))
	assert.Len(t, d.Comments, 1)
	assert.False(t, d.RemoveComment("c2"))

	e := &Entry{Comments: []Comment{{ID: "c1"}}}
	assert.True(t, e.RemoveComment("c1"))
	assert.Empty(t, e.Comments)
}

func TestLikedBy(t *testing.T) {
	t.Parallel()

	d := &Diary{Likes: []string{"u1"}}
	assert.True(t, d.LikedBy("u1"))
	assert.False(t, d.LikedBy("u2"))

	e := &Entry{Likes: []string{"u2"}}
	assert.True(t, e.LikedBy("u2"))
	assert.False(t, e.LikedBy("u1"))
}
