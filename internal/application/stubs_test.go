package application

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/oksasatya/travel-diaries/internal/domain/entity"
)

// stubUserRepo implements repository.UserRepository with overridable
// function fields; unset methods fail loudly via nil dereference.
type stubUserRepo struct {
	CreateFn        func(ctx context.Context, u *entity.User) error
	GetByIDFn       func(ctx context.Context, id string) (*entity.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*entity.User, error)
	ListFn          func(ctx context.Context) ([]*entity.User, error)
	ListByIDsFn     func(ctx context.Context, ids []string) ([]*entity.User, error)
}

func (s *stubUserRepo) Create(ctx context.Context, u *entity.User) error {
	return s.CreateFn(ctx, u)
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return s.GetByIDFn(ctx, id)
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.GetByUsernameFn(ctx, username)
}

func (s *stubUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	return s.ListFn(ctx)
}

func (s *stubUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	return s.ListByIDsFn(ctx, ids)
}

// memDiaryRepo is an in-memory DiaryRepository with the same versioning
// contract as the Postgres implementation: documents are stored by value
// and Update is a compare-and-swap on the version stamp.
type memDiaryRepo struct {
	mu   sync.Mutex
	docs map[string]memDoc
}

type memDoc struct {
	body    []byte
	version int64
}

func newMemDiaryRepo() *memDiaryRepo {
	return &memDiaryRepo{docs: make(map[string]memDoc)}
}

func (r *memDiaryRepo) Insert(ctx context.Context, d *entity.Diary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	d.Version = 1
	r.docs[d.ID] = memDoc{body: body, version: 1}
	return nil
}

func (r *memDiaryRepo) GetByID(ctx context.Context, id string) (*entity.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, entity.ErrDiaryNotFound
	}
	var d entity.Diary
	if err := json.Unmarshal(doc.body, &d); err != nil {
		return nil, err
	}
	d.Version = doc.version
	return &d, nil
}

func (r *memDiaryRepo) List(ctx context.Context) ([]*entity.Diary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Diary, 0, len(r.docs))
	for _, doc := range r.docs {
		var d entity.Diary
		if err := json.Unmarshal(doc.body, &d); err != nil {
			return nil, err
		}
		d.Version = doc.version
		out = append(out, &d)
	}
	return out, nil
}

func (r *memDiaryRepo) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Diary, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Diary, 0, len(all))
	for _, d := range all {
		if d.AuthorID == authorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDiaryRepo) Update(ctx context.Context, d *entity.Diary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[d.ID]
	if !ok {
		return entity.ErrDiaryNotFound
	}
	if doc.version != d.Version {
		return entity.ErrVersionConflict
	}
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	r.docs[d.ID] = memDoc{body: body, version: doc.version + 1}
	d.Version = doc.version + 1
	return nil
}
