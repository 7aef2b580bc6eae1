package router

import (
	"net/http"

	"dilemmas/internal/auth"
	"dilemmas/internal/handlers"
	"dilemmas/internal/middleware"
	"dilemmas/internal/services"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionName = "dilemmas_session"

// Deps are the collaborators the routes are built from.
type Deps struct {
	Sessions      sessions.Store
	Tokens        *auth.TokenIssuer
	Accounts      *services.AccountService
	Dilemmas      *services.DilemmaService
	Voting        *services.VotingService
	Moderation    *services.ModerationService
	Notifications *services.NotificationService
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Accounts)
	dilemmaHandler := handlers.NewDilemmaHandler(d.Dilemmas)
	voteHandler := handlers.NewVoteHandler(d.Voting)
	moderationHandler := handlers.NewModerationHandler(d.Moderation)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications)

	r.Use(middleware.RequestID())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(sessions.Sessions(sessionName, d.Sessions))
	r.Use(middleware.LoadPrincipal(d.Tokens, d.Accounts))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/dilemmas", dilemmaHandler.List)
	api.GET("/dilemmas/:id", dilemmaHandler.Detail)

	// Protected routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/dilemmas", dilemmaHandler.Create)
		authorized.PUT("/dilemmas/:id", dilemmaHandler.Update)
		authorized.DELETE("/dilemmas/:id", dilemmaHandler.Delete)

		authorized.POST("/dilemmas/:id/respond", voteHandler.Respond)
		authorized.GET("/my-responses", voteHandler.MyResponses)

		authorized.POST("/dilemmas/:id/denounce", moderationHandler.Denounce)
		authorized.GET("/denounced-dilemmas", moderationHandler.ListDenounced)
		authorized.GET("/dilemmas/:id/denunciations", moderationHandler.ListDenunciations)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
	}
}
