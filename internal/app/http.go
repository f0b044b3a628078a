package app

import (
	"context"
	"time"

	"iam-service/internal/auth/authenticator"
	"iam-service/internal/auth/credentials"
	"iam-service/internal/auth/handler"
	"iam-service/internal/auth/provider"
	"iam-service/internal/auth/provider/auth0"
	"iam-service/internal/auth/provider/google"
	"iam-service/internal/auth/resolver"
	"iam-service/internal/config"
	"iam-service/internal/directory"
	"iam-service/internal/iam"
	"iam-service/internal/iam/personapi"
	"iam-service/internal/logger"
	"iam-service/internal/middleware"
	"iam-service/internal/session"
	"iam-service/internal/sessionpolicy"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	dir := directory.NewPGStore(infra.DB)

	profileStore, err := personapi.New(ctx, personapi.Config{
		BaseURL:      cfg.PersonAPIBaseURL,
		TokenURL:     cfg.PersonAPITokenURL,
		ClientID:     cfg.PersonAPIClientID,
		ClientSecret: cfg.PersonAPIClientSecret,
		Audience:     cfg.PersonAPIAudience,
	})
	if err != nil {
		return nil, nil, err
	}

	profiles := iam.NewService(
		profileStore,
		dir,
		cfg.ProfileRefreshInterval,
		logger.Named("iam"),
	)

	policy := sessionpolicy.New(infra.Redis, time.Minute)

	auth := authenticator.New(
		resolver.New(dir),
		profiles,
		policy,
		logger.Named("authenticator"),
	)

	auth0Provider, err := auth0.New(
		ctx,
		cfg.Auth0Domain,
		cfg.Auth0ClientID,
		cfg.Auth0ClientSecret,
		cfg.Auth0RedirectURL,
	)
	if err != nil {
		return nil, nil, err
	}

	googleProvider, err := google.New(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		return nil, nil, err
	}

	registry := provider.NewRegistry(
		auth0Provider,
		googleProvider,
	)

	credentialService := credentials.NewService(infra.DB)

	authHandler := handler.NewHandler(
		registry,
		sessionStore,
		auth,
		dir,
		credentialService,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore)
	authMiddleware.Policy = policy
	authMiddleware.Directory = dir
	authMiddleware.Profiles = profiles

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	api.GET("/me", func(c *gin.Context) {
		userID, _ := middleware.UserIDFromContext(c.Request.Context())

		user, err := dir.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(500, gin.H{"error": "failed to load user"})
			return
		}

		c.JSON(200, gin.H{
			"user_id":          user.ID,
			"email":            user.Email,
			"name":             user.Name,
			"secondary_emails": user.SecondaryEmails,
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
