package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/travel-diaries/internal/container"
	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	handlers "github.com/oksasatya/travel-diaries/internal/interface/http"
	"github.com/oksasatya/travel-diaries/internal/interface/middleware"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
)

// AuthModule wires registration, login and the admin user listing.
// Public: POST /auth/register, POST /auth/login
// Admin:  GET /auth/users
type AuthModule struct {
	Handler *handlers.AuthHandler
	Tokens  *helpers.TokenManager
}

func NewAuthModule(h *handlers.AuthHandler, tokens *helpers.TokenManager) *AuthModule {
	return &AuthModule{Handler: h, Tokens: tokens}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)

	// Admin listing behind auth + role gate
	admin := rg.Group("/")
	admin.Use(middleware.Auth(m.Tokens))
	admin.Use(middleware.RequireRole(entity.RoleAdmin))
	admin.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.GET("/auth/users", m.Handler.ListUsers)
	}
}
