package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/config"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	accesssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/access"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	bottlesvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/bottles"
	journalsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/journal"
	mediasvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/media"
	userssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/users"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/handlers"
)

type Dependencies struct {
	JournalService *journalsvc.Service
	BottleService  *bottlesvc.Service
	MediaService   *mediasvc.Service
	AccessService  *accesssvc.Service
	UserService    *userssvc.Service
	JWTManager     *authsvc.JWTManager
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	journalHandler := handlers.NewJournalHandler(deps.JournalService)
	bottleHandler := handlers.NewBottleHandler(deps.BottleService, deps.JournalService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService, deps.AccessService)
	accessHandler := handlers.NewAccessHandler(deps.AccessService)
	meHandler := handlers.NewMeHandler(deps.UserService)

	r.Get("/healthz", healthHandler.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.JWTManager, deps.Logger))

		r.Get("/me", meHandler.Me)

		r.Post("/journal", journalHandler.Submit)
		r.Get("/journal", journalHandler.List)
		r.Delete("/journal/{entryID}", journalHandler.Delete)

		r.Post("/bottles/{bottleID}/open", bottleHandler.Open)
		r.Get("/media/{mediaID}", mediaHandler.Fetch)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(enums.RoleCurator))

			r.Post("/bottles", bottleHandler.Create)
			r.Get("/bottles", bottleHandler.List)
			r.Post("/media", mediaHandler.Upload)
			r.Post("/access/grant", accessHandler.Grant)
			r.Post("/access/revoke", accessHandler.Revoke)
			r.Get("/access/{mediaID}", accessHandler.List)
		})
	})
}
