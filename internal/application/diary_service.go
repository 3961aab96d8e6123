package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	repo "github.com/oksasatya/travel-diaries/internal/domain/repository"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
)

// maxWriteAttempts bounds the optimistic read-modify-write retry loop; an
// exhausted loop surfaces entity.ErrVersionConflict to the caller.
const maxWriteAttempts = 3

const diariesListKey = "diaries:list"
const diariesListTTL = 30 * time.Second

// DiaryService is the mutation and query core for diary aggregates.
// Every mutation loads the full aggregate, applies the change in memory and
// writes the whole document back guarded by its version stamp, so no two
// interleaved writers can drop each other's nested updates.
type DiaryService struct {
	Diaries repo.DiaryRepository
	Users   repo.UserRepository
	Redis   *redis.Client
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
}

func NewDiaryService(diaries repo.DiaryRepository, users repo.UserRepository, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *DiaryService {
	return &DiaryService{
		Diaries: diaries,
		Users:   users,
		Redis:   rdb,
		Logger:  logger,
		ES:      es,
		ESIndex: esIndex,
	}
}

// EntryInput carries the writable fields of an entry. On update, empty
// fields leave the stored value untouched: an explicit empty string does
// NOT clear a field. This mirrors the behavior clients already rely on.
type EntryInput struct {
	Text     string
	VideoURL string
	ImageURL string
}

type CreateDiaryInput struct {
	AuthorID string
	Title    string
	ImageURL string
	Entries  []EntryInput
}

// ListAll returns every diary with author identity resolved to a display
// name. The result is served from a short-lived Redis cache when available.
func (s *DiaryService) ListAll(ctx context.Context) ([]*entity.Diary, error) {
	if s.Redis != nil {
		var cached []*entity.Diary
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, diariesListKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	diaries, err := s.Diaries.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAuthors(ctx, diaries); err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, diariesListKey, diaries, diariesListTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("cache diaries list failed")
		}
	}
	return diaries, nil
}

// ListOwnedBy returns the caller's diaries in repository order.
func (s *DiaryService) ListOwnedBy(ctx context.Context, userID string) ([]*entity.Diary, error) {
	diaries, err := s.Diaries.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAuthors(ctx, diaries); err != nil {
		return nil, err
	}
	return diaries, nil
}

func (s *DiaryService) CreateDiary(ctx context.Context, in CreateDiaryInput) (*entity.Diary, error) {
	now := time.Now().UTC()
	d := &entity.Diary{
		ID:        uuid.NewString(),
		Title:     in.Title,
		AuthorID:  in.AuthorID,
		ImageURL:  in.ImageURL,
		Entries:   make([]entity.Entry, 0, len(in.Entries)),
		Likes:     []string{},
		Comments:  []entity.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, e := range in.Entries {
		d.Entries = append(d.Entries, newEntry(e, now))
	}
	if err := s.Diaries.Insert(ctx, d); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, d)
	return d, nil
}

func (s *DiaryService) AddEntry(ctx context.Context, diaryID string, in EntryInput) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		d.Entries = append(d.Entries, newEntry(in, now))
		return nil
	})
}

// UpdateEntry overwrites each provided (non-empty) field and leaves the
// rest alone; see EntryInput for the merge policy.
func (s *DiaryService) UpdateEntry(ctx context.Context, diaryID, entryID string, in EntryInput) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		e := d.Entry(entryID)
		if e == nil {
			return entity.ErrEntryNotFound
		}
		if in.Text != "" {
			e.Text = in.Text
		}
		if in.VideoURL != "" {
			e.VideoURL = in.VideoURL
		}
		if in.ImageURL != "" {
			e.ImageURL = in.ImageURL
		}
		e.UpdatedAt = now
		return nil
	})
}

func (s *DiaryService) DeleteEntry(ctx context.Context, diaryID, entryID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		if !d.RemoveEntry(entryID) {
			return entity.ErrEntryNotFound
		}
		return nil
	})
}

// LikeDiary inserts userID into the diary's like set. A second like by the
// same user is an error, not a no-op.
func (s *DiaryService) LikeDiary(ctx context.Context, diaryID, userID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		return applyLike(&d.Likes, &d.LikesCount, userID)
	})
}

func (s *DiaryService) UnlikeDiary(ctx context.Context, diaryID, userID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		return removeLike(&d.Likes, &d.LikesCount, userID)
	})
}

func (s *DiaryService) LikeEntry(ctx context.Context, diaryID, entryID, userID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		e := d.Entry(entryID)
		if e == nil {
			return entity.ErrEntryNotFound
		}
		if err := applyLike(&e.Likes, &e.LikesCount, userID); err != nil {
			return err
		}
		e.UpdatedAt = now
		return nil
	})
}

func (s *DiaryService) UnlikeEntry(ctx context.Context, diaryID, entryID, userID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		e := d.Entry(entryID)
		if e == nil {
			return entity.ErrEntryNotFound
		}
		if err := removeLike(&e.Likes, &e.LikesCount, userID); err != nil {
			return err
		}
		e.UpdatedAt = now
		return nil
	})
}

func (s *DiaryService) AddDiaryComment(ctx context.Context, diaryID, authorID, text string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		d.Comments = append(d.Comments, newComment(authorID, text, now))
		return nil
	})
}

func (s *DiaryService) AddEntryComment(ctx context.Context, diaryID, entryID, authorID, text string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		e := d.Entry(entryID)
		if e == nil {
			return entity.ErrEntryNotFound
		}
		e.Comments = append(e.Comments, newComment(authorID, text, now))
		e.UpdatedAt = now
		return nil
	})
}

func (s *DiaryService) DeleteDiaryComment(ctx context.Context, diaryID, commentID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		if !d.RemoveComment(commentID) {
			return entity.ErrCommentNotFound
		}
		return nil
	})
}

func (s *DiaryService) DeleteEntryComment(ctx context.Context, diaryID, entryID, commentID string) (*entity.Diary, error) {
	return s.mutate(ctx, diaryID, func(d *entity.Diary, now time.Time) error {
		e := d.Entry(entryID)
		if e == nil {
			return entity.ErrEntryNotFound
		}
		if !e.RemoveComment(commentID) {
			return entity.ErrCommentNotFound
		}
		e.UpdatedAt = now
		return nil
	})
}

// mutate runs one logical read-modify-write on a diary aggregate. On a
// version conflict the whole cycle is retried against a fresh load, so a
// losing writer re-applies its change on top of the winner's state.
func (s *DiaryService) mutate(ctx context.Context, diaryID string, fn func(d *entity.Diary, now time.Time) error) (*entity.Diary, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		d, err := s.Diaries.GetByID(ctx, diaryID)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		if err := fn(d, now); err != nil {
			return nil, err
		}
		d.UpdatedAt = now
		if err := s.Diaries.Update(ctx, d); err != nil {
			if errors.Is(err, entity.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.afterWrite(ctx, d)
		return d, nil
	}
	return nil, lastErr
}

func (s *DiaryService) resolveAuthors(ctx context.Context, diaries []*entity.Diary) error {
	if len(diaries) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(diaries))
	ids := make([]string, 0, len(diaries))
	for _, d := range diaries {
		if _, ok := seen[d.AuthorID]; !ok {
			seen[d.AuthorID] = struct{}{}
			ids = append(ids, d.AuthorID)
		}
	}
	users, err := s.Users.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for _, d := range diaries {
		d.AuthorName = names[d.AuthorID]
	}
	return nil
}

// afterWrite invalidates the list cache and re-indexes the diary for
// search. Both are best effort; a failure never fails the mutation.
func (s *DiaryService) afterWrite(ctx context.Context, d *entity.Diary) {
	if s.Redis != nil {
		if err := helpers.RedisDel(ctx, s.Redis, diariesListKey); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("invalidate diaries list cache failed")
		}
	}
	_ = s.indexDiary(ctx, d)
}

func (s *DiaryService) indexDiary(ctx context.Context, d *entity.Diary) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	texts := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Text != "" {
			texts = append(texts, e.Text)
		}
	}
	doc := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"author_id":  d.AuthorID,
		"entry_text": strings.Join(texts, "\n"),
		"updated_at": d.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: d.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("diary_id", d.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("diary_id", d.ID).Warn("es index response error")
	}
	return nil
}

// Search performs a multi_match over titles and entry text.
func (s *DiaryService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "entry_text"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func newEntry(in EntryInput, now time.Time) entity.Entry {
	return entity.Entry{
		ID:        uuid.NewString(),
		Text:      in.Text,
		VideoURL:  in.VideoURL,
		ImageURL:  in.ImageURL,
		Likes:     []string{},
		Comments:  []entity.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newComment(authorID, text string, now time.Time) entity.Comment {
	return entity.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		AuthorID:  authorID,
		CreatedAt: now,
	}
}

func applyLike(likes *[]string, count *int, userID string) error {
	for _, id := range *likes {
		if id == userID {
			return entity.ErrAlreadyLiked
		}
	}
	*likes = append(*likes, userID)
	*count++
	return nil
}

func removeLike(likes *[]string, count *int, userID string) error {
	for i, id := range *likes {
		if id == userID {
			*likes = append((*likes)[:i], (*likes)[i+1:]...)
			*count--
			return nil
		}
	}
	return entity.ErrNotLiked
}
