package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/api/views"
	"github.com/stooppolitics/stoop-cms/internal/services/auth"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

// ClaimsKey is the gin context key holding the operator's *auth.Claims
const ClaimsKey = "claims"

// skipAuthToken turns the dev bypass into "no token needed at all"
const skipAuthToken = "SKIP_AUTH"

// Handler manages auth endpoints
type Handler struct {
	deps         *types.Dependencies
	secureCookie bool
	devClaims    *auth.Claims
}

// NewHandler creates a new auth handler
func NewHandler(deps *types.Dependencies) *Handler {
	return &Handler{deps: deps}
}

// SetDevAuth lets every admin request through as the dev operator when token is SKIP_AUTH
func (h *Handler) SetDevAuth(enabled bool, token string) {
	if enabled && token == skipAuthToken {
		log.Printf("[WARN] Admin authentication is disabled (dev auth %s)", skipAuthToken)
		h.devClaims = auth.DevClaims()
		return
	}
	h.devClaims = nil
}

// SetSecureCookie marks the session cookie Secure; enable it when served over HTTPS
func (h *Handler) SetSecureCookie(secure bool) {
	h.secureCookie = secure
}

// Me returns current user info from JWT
// @Summary Get current operator
// @Description Get the signed-in operator from the Supabase JWT or session cookie
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} auth.UserInfo
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/me [get]
func (h *Handler) Me(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Status: types.StatusError, Message: "Unauthorized", Error: string(apperrors.ErrCodeUnauthorized)})
		return
	}
	c.JSON(http.StatusOK, auth.GetUserInfo(claims))
}

// Login signs an operator in with email and password
// @Summary Operator sign in
// @Description Exchange email and password for a Supabase session. Sets the session cookie. Form posts from /login are redirected to /admin.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body types.LoginRequest true "Credentials"
// @Success 200 {object} types.LoginResponse
// @Success 303 "Redirect to /admin for form posts"
// @Failure 400 {object} types.ErrorResponse
// @Failure 401 {object} types.ErrorResponse "Invalid email or password"
// @Failure 403 {object} types.ErrorResponse "Signed in but not an operator"
// @Failure 503 {object} types.ErrorResponse "Login not configured"
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	form := isFormPost(c)

	if h.deps.Login == nil || h.deps.Auth == nil {
		h.loginFailed(c, form, "", http.StatusServiceUnavailable, types.ErrorResponse{
			Status:  types.StatusError,
			Message: "Login is not configured",
			Error:   string(apperrors.ErrCodeConfigInvalid),
		})
		return
	}

	var req types.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.loginFailed(c, form, req.Email, http.StatusBadRequest, types.ErrorResponse{
			Status:  types.StatusError,
			Message: "Please enter your email and password",
			Error:   string(apperrors.ErrCodeValidation),
		})
		return
	}

	session, err := h.deps.Login.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, resp := types.ErrorFor(err)
		if status >= http.StatusInternalServerError {
			log.Printf("[ERROR] Sign-in failed: %v", err)
		}
		h.loginFailed(c, form, req.Email, status, resp)
		return
	}

	// Only operators get a session cookie
	if _, err := h.deps.Auth.ValidateToken(session.AccessToken); err != nil {
		if signOutErr := h.deps.Login.SignOut(c.Request.Context(), session.AccessToken); signOutErr != nil {
			log.Printf("[WARN] Failed to revoke rejected session: %v", signOutErr)
		}
		status, resp := types.ErrorFor(err)
		h.loginFailed(c, form, req.Email, status, resp)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.deps.CookieName(), session.AccessToken, session.ExpiresIn, "/", "", h.secureCookie, true)

	if form {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	c.JSON(http.StatusOK, types.LoginResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Signed in"},
		Session:      session,
	})
}

func (h *Handler) loginFailed(c *gin.Context, form bool, email string, status int, resp types.ErrorResponse) {
	if form {
		c.HTML(status, "login.html", views.LoginData{Site: h.deps.Site, Error: resp.Message, Email: email})
		return
	}
	c.JSON(status, resp)
}

// Logout clears the session cookie and revokes the session
// @Summary Operator sign out
// @Tags auth
// @Produce json
// @Success 200 {object} types.BaseResponse
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if token := h.tokenFrom(c); token != "" && h.deps.Login != nil {
		if err := h.deps.Login.SignOut(c.Request.Context(), token); err != nil {
			log.Printf("[WARN] Sign-out failed: %v", err)
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.deps.CookieName(), "", -1, "/", "", h.secureCookie, true)

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.JSON(http.StatusOK, types.BaseResponse{Status: types.StatusOK, Message: "Signed out"})
}

// LoginPage renders the sign-in form, or goes straight to the dashboard with a valid session
func (h *Handler) LoginPage(c *gin.Context) {
	if _, err := h.authenticate(c); err == nil {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	c.HTML(http.StatusOK, "login.html", views.LoginData{Site: h.deps.Site})
}

// AuthMiddleware validates Supabase JWT tokens from the Authorization header or the session cookie
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := h.authenticate(c)
		if err != nil {
			status, resp := types.ErrorFor(err)
			if status >= http.StatusInternalServerError {
				log.Printf("[ERROR] Token validation failed: %v", err)
			}
			c.AbortWithStatusJSON(status, resp)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireSession guards HTML pages; visitors without a valid session are sent to /login
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := h.authenticate(c)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func (h *Handler) authenticate(c *gin.Context) (*auth.Claims, error) {
	if h.devClaims != nil {
		return h.devClaims, nil
	}

	header := c.GetHeader("Authorization")
	token := h.tokenFrom(c)
	if token == "" {
		if header != "" {
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "Invalid authorization header format")
		}
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "Authorization header required")
	}
	if h.deps.Auth == nil {
		return nil, apperrors.ConfigError("supabase.jwks_url", "Authentication is not configured")
	}
	return h.deps.Auth.ValidateToken(token)
}

// tokenFrom prefers a Bearer header and falls back to the session cookie
func (h *Handler) tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(h.deps.CookieName()); err == nil {
		return cookie
	}
	return ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ClaimsKey, claims)
	c.Set("user_id", claims.Sub)
	c.Set("email", claims.Email)
}

// ClaimsFrom returns the claims stored by AuthMiddleware or RequireSession
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok && claims != nil
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return true
	}
	return false
}
