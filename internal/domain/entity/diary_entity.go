package entity

import (
	"slices"
	"time"
)

// Diary is an aggregate root: entries, comments and like sets live inside
// the diary document and have no identity outside it. Version backs
// optimistic concurrency at the repository boundary and is not part of the
// serialized document body.
type Diary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Entries    []Entry   `json:"entries"`
	Likes      []string  `json:"likes"`
	LikesCount int       `json:"likes_count"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"-"`
}

// Entry is a child of a Diary. Its ID is unique within the owning diary only.
type Entry struct {
	ID         string    `json:"id"`
	Text       string    `json:"text,omitempty"`
	VideoURL   string    `json:"video_url,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Likes      []string  `json:"likes"`
	LikesCount int       `json:"likes_count"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Comment belongs either to a diary or to an entry; its ID is unique within
// that immediate parent.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry returns a pointer into the diary's entry slice, or nil.
func (d *Diary) Entry(entryID string) *Entry {
	for i := range d.Entries {
		if d.Entries[i].ID == entryID {
			return &d.Entries[i]
		}
	}
	return nil
}

// RemoveEntry deletes the entry by id, reporting whether it was present.
func (d *Diary) RemoveEntry(entryID string) bool {
	for i := range d.Entries {
		if d.Entries[i].ID == entryID {
			d.Entries = slices.Delete(d.Entries, i, i+1)
			return true
		}
	}
	return false
}

// LikedBy reports whether userID is in the diary-level like set.
func (d *Diary) LikedBy(userID string) bool { return slices.Contains(d.Likes, userID) }

// LikedBy reports whether userID is in the entry-level like set.
func (e *Entry) LikedBy(userID string) bool { return slices.Contains(e.Likes, userID) }

func removeComment(comments []Comment, commentID string) ([]Comment, bool) {
	for i := range comments {
		if comments[i].ID == commentID {
			return slices.Delete(comments, i, i+1), true
		}
	}
	return comments, false
}

// RemoveComment deletes a diary-level comment by id.
func (d *Diary) RemoveComment(commentID string) bool {
	var ok bool
	d.Comments, ok = removeComment(d.Comments, commentID)
	return ok
}

// RemoveComment deletes an entry-level comment by id.
func (e *Entry) RemoveComment(commentID string) bool {
	var ok bool
	e.Comments, ok = removeComment(e.Comments, commentID)
	return ok
}
