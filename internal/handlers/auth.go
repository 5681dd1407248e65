package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/users"
)

// AuthHandler serves /auth/login and issues JWTs.
type AuthHandler struct {
	userService *users.Service
	jwtSecret   string
	expiresIn   time.Duration
	limiter     *loginLimiter
	logger      *slog.Logger
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the success body (access_token, user info, expires_at).
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// NewAuthHandler creates an auth handler with user service and JWT config.
func NewAuthHandler(log *slog.Logger, userService *users.Service, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtSecret:   jwtSecret,
		expiresIn:   expiresIn,
		limiter:     newLoginLimiter(rate.Every(2*time.Second), 5),
		logger:      log.With(slog.String("handler", "auth")),
	}
}

// Register mounts POST /auth/login on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
}

// Login validates user credentials, issues a JWT, and sets the hl_token cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	if h.userService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "user service not configured")
	}
	if strings.TrimSpace(h.jwtSecret) == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, "jwt secret not configured")
	}
	if h.expiresIn <= 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, "jwt expiry not configured")
	}
	if !h.limiter.allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Password) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	user, err := h.userService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		if errors.Is(err, users.ErrSuspendedUser) {
			return echo.NewHTTPError(http.StatusUnauthorized, "account is suspended")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	token, expiresAt, err := auth.GenerateToken(user.ID, h.jwtSecret, h.expiresIn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
	})
}

// loginLimiter throttles login attempts per client IP.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLoginLimiter(r rate.Limit, burst int) *loginLimiter {
	return &loginLimiter{
		limiters: map[string]*rate.Limiter{},
		rate:     r,
		burst:    burst,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) > 10000 {
		l.limiters = map[string]*rate.Limiter{}
	}
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter.Allow()
}
