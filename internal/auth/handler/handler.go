package handler

import (
	"net/http"
	"time"

	"iam-service/internal/auth/authenticator"
	"iam-service/internal/auth/credentials"
	"iam-service/internal/auth/provider"
	"iam-service/internal/directory"
	"iam-service/internal/logger"
	"iam-service/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionTTL = 24 * time.Hour

type Handler struct {
	providers         *provider.Registry
	sessionStore      session.Store
	authenticator     *authenticator.Authenticator
	directory         directory.Store
	credentialService *credentials.Service
}

func NewHandler(
	registry *provider.Registry,
	sessionStore session.Store,
	auth *authenticator.Authenticator,
	dir directory.Store,
	credentialService *credentials.Service,
) *Handler {
	return &Handler{
		providers:         registry,
		sessionStore:      sessionStore,
		authenticator:     auth,
		directory:         dir,
		credentialService: credentialService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	rawIDToken, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		logger.Error("token exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	sess := session.Session{CreatedAt: time.Now()}

	result := h.authenticator.AfterAuthenticate(
		c.Request.Context(),
		p,
		rawIDToken,
		&sess,
	)

	if result.Failed {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": result.FailedReason,
		})
		return
	}

	user := result.User
	if user == nil {
		// First sign-in for this address: create the account, then
		// pull its profile under the subject that authenticated.
		if !result.EmailValid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "email not verified by provider",
			})
			return
		}

		user, err = h.directory.Create(
			c.Request.Context(),
			result.Email,
			true,
			result.Name,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "failed to create account",
			})
			return
		}

		if err := h.authenticator.AfterCreateAccount(
			c.Request.Context(),
			user,
			result.ExtraData,
		); err != nil {
			logger.Error("post-signup profile refresh failed", map[string]any{
				"user_id": user.ID,
				"error":   err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "failed to initialize account",
			})
			return
		}
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create session",
		})
		return
	}

	sess.SessionID = sessionID
	sess.UserID = user.ID
	sess.ExpiresAt = sess.CreatedAt.Add(sessionTTL)

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to persist session",
		})
		return
	}

	session.SetCookie(c.Writer, sessionID, sess.ExpiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	logger.Info("login succeeded", map[string]any{
		"user_id":  user.ID,
		"provider": providerName,
	})

	c.JSON(http.StatusOK, gin.H{
		"status": "authenticated",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		// best-effort; the cookie is cleared regardless
		_ = h.sessionStore.Delete(c.Request.Context(), cookie.Value)
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	c.Status(http.StatusNoContent)
}
