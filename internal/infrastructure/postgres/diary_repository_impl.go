package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	"github.com/oksasatya/travel-diaries/internal/domain/repository"
)

// DiaryRepository stores each diary aggregate as one JSONB document.
// author_id and version are lifted into columns: the former for the
// owner-filtered listing, the latter as the optimistic concurrency stamp.
type DiaryRepository struct {
	pool *pgxpool.Pool
}

func NewDiaryRepository(pool *pgxpool.Pool) *DiaryRepository {
	return &DiaryRepository{pool: pool}
}

func (r *DiaryRepository) Insert(ctx context.Context, d *entity.Diary) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	d.Version = 1
	_, err = r.pool.Exec(ctx, `
		INSERT INTO diaries (id, author_id, doc, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.AuthorID, doc, d.Version, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *DiaryRepository) GetByID(ctx context.Context, id string) (*entity.Diary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT doc, version FROM diaries WHERE id = $1
	`, id)
	return scanDiary(row)
}

func (r *DiaryRepository) List(ctx context.Context) ([]*entity.Diary, error) {
	return r.list(ctx, `SELECT doc, version FROM diaries ORDER BY created_at`)
}

func (r *DiaryRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Diary, error) {
	return r.list(ctx, `SELECT doc, version FROM diaries WHERE author_id = $1 ORDER BY created_at`, authorID)
}

func (r *DiaryRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Diary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diaries []*entity.Diary
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, err
		}
		diaries = append(diaries, d)
	}
	return diaries, rows.Err()
}

// Update rewrites the whole document guarded by the version the aggregate
// was loaded with. A stale version means another writer finished first.
func (r *DiaryRepository) Update(ctx context.Context, d *entity.Diary) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE diaries
		SET doc = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`, doc, d.UpdatedAt, d.ID, d.Version)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// Distinguish a vanished row from a concurrent writer.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM diaries WHERE id = $1)`, d.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return entity.ErrDiaryNotFound
		}
		return entity.ErrVersionConflict
	}
	d.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiary(row rowScanner) (*entity.Diary, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDiaryNotFound
		}
		return nil, err
	}
	d := &entity.Diary{}
	if err := json.Unmarshal(doc, d); err != nil {
		return nil, err
	}
	d.Version = version
	return d, nil
}

var _ repository.DiaryRepository = (*DiaryRepository)(nil)
