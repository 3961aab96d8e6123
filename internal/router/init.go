package router

import (
	app "github.com/oksasatya/travel-diaries/internal/application"
	"github.com/oksasatya/travel-diaries/internal/container"
	pginfra "github.com/oksasatya/travel-diaries/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/travel-diaries/internal/interface/http"
	"github.com/oksasatya/travel-diaries/internal/router/modules"
)

// InitModules builds every feature module from container singletons and
// registers it. Called once during startup, after the container is seeded.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	diaryRepo := pginfra.NewDiaryRepository(container.GetPGPool())

	authSvc := app.NewAuthService(
		userRepo,
		container.GetTokens(),
		container.GetRabbitPub(),
		container.GetLogger(),
		cfg.MailSendEnabled,
	)
	diarySvc := app.NewDiaryService(
		diaryRepo,
		userRepo,
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESDiariesIndex,
	)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(authSvc, container.GetLogger()), container.GetTokens()))
	r.Add(modules.NewDiaryModule(handlers.NewDiaryHandler(diarySvc, container.GetLogger()), container.GetTokens()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
