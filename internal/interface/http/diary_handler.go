package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/travel-diaries/internal/application"
	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	"github.com/oksasatya/travel-diaries/internal/interface/middleware"
	"github.com/oksasatya/travel-diaries/pkg/response"
	"github.com/oksasatya/travel-diaries/pkg/validation"
)

type DiaryHandler struct {
	Svc    *app.DiaryService
	Logger *logrus.Logger
}

func NewDiaryHandler(svc *app.DiaryService, logger *logrus.Logger) *DiaryHandler {
	return &DiaryHandler{Svc: svc, Logger: logger}
}

type entryRequest struct {
	Text     string `json:"text"`
	VideoURL string `json:"video_url" binding:"omitempty,url"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
}

type createDiaryRequest struct {
	Title    string         `json:"title" binding:"required"`
	ImageURL string         `json:"image_url" binding:"omitempty,url"`
	Entries  []entryRequest `json:"entries" binding:"omitempty,dive"`
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (r entryRequest) input() app.EntryInput {
	return app.EntryInput{Text: r.Text, VideoURL: r.VideoURL, ImageURL: r.ImageURL}
}

func (h *DiaryHandler) List(c *gin.Context) {
	diaries, err := h.Svc.ListAll(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("list diaries failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to list diaries", nil)
		return
	}
	response.Success(c, http.StatusOK, diaries, "diaries")
}

func (h *DiaryHandler) ListOwn(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	diaries, err := h.Svc.ListOwnedBy(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).Error("list own diaries failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to list diaries", nil)
		return
	}
	response.Success(c, http.StatusOK, diaries, "diaries")
}

func (h *DiaryHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("search diaries failed")
		response.Error[any](c, http.StatusInternalServerError, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results")
}

func (h *DiaryHandler) Create(c *gin.Context) {
	var req createDiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := app.CreateDiaryInput{
		AuthorID: c.GetString(middleware.CtxUserID),
		Title:    req.Title,
		ImageURL: req.ImageURL,
	}
	for _, e := range req.Entries {
		in.Entries = append(in.Entries, e.input())
	}
	d, err := h.Svc.CreateDiary(c.Request.Context(), in)
	if err != nil {
		h.Logger.WithError(err).Error("create diary failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to create diary", nil)
		return
	}
	response.Success(c, http.StatusCreated, d, "diary created")
}

func (h *DiaryHandler) AddEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	d, err := h.Svc.AddEntry(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err, "failed to add entry")
		return
	}
	response.Success(c, http.StatusCreated, d, "entry added")
}

func (h *DiaryHandler) UpdateEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	d, err := h.Svc.UpdateEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"), req.input())
	if err != nil {
		h.fail(c, err, "failed to update entry")
		return
	}
	response.Success(c, http.StatusOK, d, "entry updated")
}

func (h *DiaryHandler) DeleteEntry(c *gin.Context) {
	d, err := h.Svc.DeleteEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"))
	if err != nil {
		h.fail(c, err, "failed to delete entry")
		return
	}
	response.Success(c, http.StatusOK, d, "entry deleted")
}

func (h *DiaryHandler) LikeDiary(c *gin.Context) {
	d, err := h.Svc.LikeDiary(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.fail(c, err, "failed to like diary")
		return
	}
	response.Success(c, http.StatusOK, d, "diary liked")
}

func (h *DiaryHandler) UnlikeDiary(c *gin.Context) {
	d, err := h.Svc.UnlikeDiary(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.fail(c, err, "failed to unlike diary")
		return
	}
	response.Success(c, http.StatusOK, d, "diary unliked")
}

func (h *DiaryHandler) LikeEntry(c *gin.Context) {
	d, err := h.Svc.LikeEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.fail(c, err, "failed to like entry")
		return
	}
	response.Success(c, http.StatusOK, d, "entry liked")
}

func (h *DiaryHandler) UnlikeEntry(c *gin.Context) {
	d, err := h.Svc.UnlikeEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.fail(c, err, "failed to unlike entry")
		return
	}
	response.Success(c, http.StatusOK, d, "entry unliked")
}

func (h *DiaryHandler) CommentDiary(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	d, err := h.Svc.AddDiaryComment(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID), req.Text)
	if err != nil {
		h.fail(c, err, "failed to add comment")
		return
	}
	response.Success(c, http.StatusCreated, d, "comment added")
}

func (h *DiaryHandler) CommentEntry(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	d, err := h.Svc.AddEntryComment(c.Request.Context(), c.Param("id"), c.Param("entryId"), c.GetString(middleware.CtxUserID), req.Text)
	if err != nil {
		h.fail(c, err, "failed to add comment")
		return
	}
	response.Success(c, http.StatusCreated, d, "comment added")
}

func (h *DiaryHandler) DeleteDiaryComment(c *gin.Context) {
	d, err := h.Svc.DeleteDiaryComment(c.Request.Context(), c.Param("id"), c.Param("commentId"))
	if err != nil {
		h.fail(c, err, "failed to delete comment")
		return
	}
	response.Success(c, http.StatusOK, d, "comment deleted")
}

func (h *DiaryHandler) DeleteEntryComment(c *gin.Context) {
	d, err := h.Svc.DeleteEntryComment(c.Request.Context(), c.Param("id"), c.Param("entryId"), c.Param("commentId"))
	if err != nil {
		h.fail(c, err, "failed to delete comment")
		return
	}
	response.Success(c, http.StatusOK, d, "comment deleted")
}

// fail maps domain errors to HTTP statuses. Unknown errors become 500 and
// are logged with context; the client sees only the generic message.
func (h *DiaryHandler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, entity.ErrDiaryNotFound):
		response.Error[any](c, http.StatusNotFound, "diary not found", nil)
	case errors.Is(err, entity.ErrEntryNotFound):
		response.Error[any](c, http.StatusNotFound, "entry not found", nil)
	case errors.Is(err, entity.ErrCommentNotFound):
		response.Error[any](c, http.StatusNotFound, "comment not found", nil)
	case errors.Is(err, entity.ErrAlreadyLiked):
		response.Error[any](c, http.StatusBadRequest, "already liked", nil)
	case errors.Is(err, entity.ErrNotLiked):
		response.Error[any](c, http.StatusBadRequest, "not liked yet", nil)
	default:
		h.Logger.WithError(err).Error(msg)
		response.Error[any](c, http.StatusInternalServerError, msg, nil)
	}
}
