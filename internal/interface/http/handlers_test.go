package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/oksasatya/travel-diaries/internal/application"
	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	"github.com/oksasatya/travel-diaries/internal/interface/middleware"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
	"github.com/oksasatya/travel-diaries/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validation.Init()
	os.Exit(m.Run())
}

// fakeUserRepo keeps accounts in memory keyed by username.
type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return entity.ErrDuplicateUsername
	}
	r.seq++
	u.ID = "u-" + strconv.Itoa(r.seq)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.Username] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeDiaryRepo stores serialized aggregates with compare-and-swap
// versioning, mirroring the Postgres implementation's contract.
type fakeDiaryRepo struct {
	mu   sync.Mutex
	docs map[string]fakeDoc
}

type fakeDoc struct {
	body    []byte
	version int64
}

func newFakeDiaryRepo() *fakeDiaryRepo {
	return &fakeDiaryRepo{docs: make(map[string]fakeDoc)}
}

func (r *fakeDiaryRepo) Insert(ctx context.Context, d *entity.Diary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	d.Version = 1
	r.docs[d.ID] = fakeDoc{body: body, version: 1}
	return nil
}

func (r *fakeDiaryRepo) GetByID(ctx context.Context, id string) (*entity.Diary, error) {
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

func (r *fakeDiaryRepo) List(ctx context.Context) ([]*entity.Diary, error) {
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

func (r *fakeDiaryRepo) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Diary, error) {
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

func (r *fakeDiaryRepo) Update(ctx context.Context, d *entity.Diary) error {
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
	r.docs[d.ID] = fakeDoc{body: body, version: doc.version + 1}
	d.Version = doc.version + 1
	return nil
}

type testEnv struct {
	router *gin.Engine
	tokens *helpers.TokenManager
	users  *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	tokens := helpers.NewTokenManager("test-secret", time.Hour)
	users := newFakeUserRepo()
	diaries := newFakeDiaryRepo()

	authSvc := app.NewAuthService(users, tokens, nil, logger, false)
	diarySvc := app.NewDiaryService(diaries, users, nil, logger, nil, "")

	ah := NewAuthHandler(authSvc, logger)
	dh := NewDiaryHandler(diarySvc, logger)

	r := gin.New()
	r.POST("/auth/register", ah.Register)
	r.POST("/auth/login", ah.Login)
	admin := r.Group("/", middleware.Auth(tokens), middleware.RequireRole(entity.RoleAdmin))
	admin.GET("/auth/users", ah.ListUsers)

	auth := r.Group("/", middleware.Auth(tokens))
	auth.GET("/diaries", dh.List)
	auth.GET("/user/diaries", dh.ListOwn)
	auth.POST("/diaries", dh.Create)
	auth.POST("/diaries/:id/entries", dh.AddEntry)
	auth.PUT("/diaries/:id/entries/:entryId", dh.UpdateEntry)
	auth.DELETE("/diaries/:id/entries/:entryId", dh.DeleteEntry)
	auth.POST("/diaries/:id/like", dh.LikeDiary)
	auth.POST("/diaries/:id/unlike", dh.UnlikeDiary)
	auth.POST("/diaries/:id/entries/:entryId/like", dh.LikeEntry)
	auth.POST("/diaries/:id/entries/:entryId/unlike", dh.UnlikeEntry)
	auth.POST("/diaries/:id/comments", dh.CommentDiary)
	auth.DELETE("/diaries/:id/comments/:commentId", dh.DeleteDiaryComment)
	auth.POST("/diaries/:id/entries/:entryId/comments", dh.CommentEntry)
	auth.DELETE("/diaries/:id/entries/:entryId/comments/:commentId", dh.DeleteEntryComment)

	return &testEnv{router: r, tokens: tokens, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerAndLogin(t *testing.T, username, role string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"`+username+`","password":"password123","role":"`+role+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"`+username+`","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	// too-short username and password
	w := env.do(t, http.MethodPost, "/auth/register", "", `{"username":"ab","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// bad role
	w = env.do(t, http.MethodPost, "/auth/register", "", `{"username":"traveler","password":"password123","role":"root"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", "", `{"username":"traveler","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/auth/register", "", `{"username":"traveler","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "traveler", "user")

	w := env.do(t, http.MethodPost, "/auth/login", "", `{"username":"traveler","password":"wrongwrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminListUsersRoleGate(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.registerAndLogin(t, "plainuser", "user")
	adminToken := env.registerAndLogin(t, "bigboss", "admin")

	w := env.do(t, http.MethodGet, "/auth/users", userToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/auth/users", adminToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plainuser")
	assert.Contains(t, w.Body.String(), "bigboss")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestDiaryRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/diaries", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func createDiary(t *testing.T, env *testEnv, token string) *entity.Diary {
	t.Helper()
	w := env.do(t, http.MethodPost, "/diaries", token,
		`{"title":"my trip","entries":[{"text":"day one"}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data entity.Diary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp.Data
}

func TestDiaryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "traveler", "user")

	d := createDiary(t, env, token)
	require.Len(t, d.Entries, 1)
	entryID := d.Entries[0].ID

	// add entry
	w := env.do(t, http.MethodPost, "/diaries/"+d.ID+"/entries", token, `{"text":"day two"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	// update entry
	w = env.do(t, http.MethodPut, "/diaries/"+d.ID+"/entries/"+entryID, token, `{"text":"day one, revised"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "day one, revised")

	// list own
	w = env.do(t, http.MethodGet, "/user/diaries", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "my trip")

	// delete entry
	w = env.do(t, http.MethodDelete, "/diaries/"+d.ID+"/entries/"+entryID, token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// deleting again is a 404
	w = env.do(t, http.MethodDelete, "/diaries/"+d.ID+"/entries/"+entryID, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownDiaryIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "traveler", "user")

	w := env.do(t, http.MethodPost, "/diaries/nope/like", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeToggleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	author := env.registerAndLogin(t, "author", "user")
	reader := env.registerAndLogin(t, "reader", "user")

	d := createDiary(t, env, author)

	// non-owner may like
	w := env.do(t, http.MethodPost, "/diaries/"+d.ID+"/like", reader, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"likes_count":1`)

	// duplicate like is a 400
	w = env.do(t, http.MethodPost, "/diaries/"+d.ID+"/like", reader, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already liked")

	w = env.do(t, http.MethodPost, "/diaries/"+d.ID+"/unlike", reader, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"likes_count":0`)

	// unlike without a like is a 400
	w = env.do(t, http.MethodPost, "/diaries/"+d.ID+"/unlike", reader, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not liked")
}

func TestEntryCommentsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "traveler", "user")

	d := createDiary(t, env, token)
	entryID := d.Entries[0].ID

	// text is required
	w := env.do(t, http.MethodPost, "/diaries/"+d.ID+"/entries/"+entryID+"/comments", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/diaries/"+d.ID+"/entries/"+entryID+"/comments", token, `{"text":"what a view"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data entity.Diary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	e := resp.Data.Entry(entryID)
	require.NotNil(t, e)
	require.Len(t, e.Comments, 1)
	commentID := e.Comments[0].ID

	w = env.do(t, http.MethodDelete, "/diaries/"+d.ID+"/entries/"+entryID+"/comments/"+commentID, token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/diaries/"+d.ID+"/entries/"+entryID+"/comments/"+commentID, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDiariesCarriesAuthorName(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "traveler", "user")
	createDiary(t, env, token)

	w := env.do(t, http.MethodGet, "/diaries", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"author_name":"traveler"`)
}
