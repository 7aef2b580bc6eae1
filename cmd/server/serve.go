package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dilemmas/internal/auth"
	"dilemmas/internal/config"
	"dilemmas/internal/db"
	"dilemmas/internal/router"
	"dilemmas/internal/services"
	"dilemmas/internal/store"
	"dilemmas/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}
	repo := store.New(conn)

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	statsCache, err := utils.NewCache(cfg.StatsCacheSize)
	if err != nil {
		return err
	}

	auditor := services.NewCounterAuditor(repo)
	auditor.Start(ctx)

	moderation, err := services.NewModerationService(repo, cfg.DenunciationLimit, auditor)
	if err != nil {
		return err
	}

	r := gin.Default()
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.RegisterRoutes(r, router.Deps{
		Sessions:      sessionStore,
		Tokens:        tokens,
		Accounts:      services.NewAccountService(repo, tokens),
		Dilemmas:      services.NewDilemmaService(repo, statsCache, cfg.StatsCacheTTL),
		Voting:        services.NewVotingService(repo, statsCache),
		Moderation:    moderation,
		Notifications: services.NewNotificationService(repo),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Dilemmas server starting on :%s (denunciation limit %d)", cfg.Port, cfg.DenunciationLimit)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
