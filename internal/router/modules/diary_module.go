package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/travel-diaries/internal/container"
	handlers "github.com/oksasatya/travel-diaries/internal/interface/http"
	"github.com/oksasatya/travel-diaries/internal/interface/middleware"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
)

// DiaryModule wires every diary route. All routes require a bearer token;
// ownership is not checked here, any authenticated user may like or
// comment on any diary.
type DiaryModule struct {
	Handler *handlers.DiaryHandler
	Tokens  *helpers.TokenManager
}

func NewDiaryModule(h *handlers.DiaryHandler, tokens *helpers.TokenManager) *DiaryModule {
	return &DiaryModule{Handler: h, Tokens: tokens}
}

func (m *DiaryModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Tokens))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/diaries", m.Handler.List)
		auth.GET("/diaries/search", m.Handler.Search)
		auth.GET("/user/diaries", m.Handler.ListOwn)
		auth.POST("/diaries", m.Handler.Create)

		auth.POST("/diaries/:id/entries", m.Handler.AddEntry)
		auth.PUT("/diaries/:id/entries/:entryId", m.Handler.UpdateEntry)
		auth.DELETE("/diaries/:id/entries/:entryId", m.Handler.DeleteEntry)

		auth.POST("/diaries/:id/like", m.Handler.LikeDiary)
		auth.POST("/diaries/:id/unlike", m.Handler.UnlikeDiary)
		auth.POST("/diaries/:id/entries/:entryId/like", m.Handler.LikeEntry)
		auth.POST("/diaries/:id/entries/:entryId/unlike", m.Handler.UnlikeEntry)

		auth.POST("/diaries/:id/comments", m.Handler.CommentDiary)
		auth.DELETE("/diaries/:id/comments/:commentId", m.Handler.DeleteDiaryComment)
		auth.POST("/diaries/:id/entries/:entryId/comments", m.Handler.CommentEntry)
		auth.DELETE("/diaries/:id/entries/:entryId/comments/:commentId", m.Handler.DeleteEntryComment)
	}
}
