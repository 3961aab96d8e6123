package repository

import (
	"context"

	"github.com/oksasatya/travel-diaries/internal/domain/entity"
)

// DiaryRepository persists whole Diary aggregates as documents. Children
// (entries, comments, like sets) are never addressed individually at this
// layer; every mutation rewrites the full document.
type DiaryRepository interface {
	Insert(ctx context.Context, d *entity.Diary) error
	// GetByID returns entity.ErrDiaryNotFound when the id does not resolve.
	GetByID(ctx context.Context, id string) (*entity.Diary, error)
	List(ctx context.Context) ([]*entity.Diary, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.Diary, error)
	// Update writes the aggregate guarded by its Version: it fails with
	// entity.ErrVersionConflict when another writer got there first, and
	// bumps d.Version on success.
	Update(ctx context.Context, d *entity.Diary) error
}
