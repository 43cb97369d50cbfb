package auth

import (
	"errors"
	"io"
	"time"

	"github.com/chattr/authcore/internal/middleware"
	"github.com/chattr/authcore/internal/pkg/response"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc     *Service
	cookies cookiePolicy
	now     func() time.Time
}

// NewHandler builds the auth routes. secureCookies is set in production.
func NewHandler(svc *Service, secureCookies bool) *Handler {
	return &Handler{svc: svc, cookies: cookiePolicy{secure: secureCookies}, now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", h.logout)
	a.POST("/logout-all", authMW, h.logoutAll)
	a.GET("/me", authMW, h.me)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, pair, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cookies.set(c, pair, h.now())
	response.Created(c, authResponse{User: toResponse(u), Pair: pair})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, pair, err := h.svc.Login(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cookies.set(c, pair, h.now())
	response.OK(c, authResponse{User: toResponse(u), Pair: pair})
}

func (h *Handler) refresh(c *gin.Context) {
	token, ok := refreshToken(c)
	if !ok {
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, session.ErrStorage) {
			h.cookies.clear(c)
		}
		h.fail(c, err)
		return
	}
	h.cookies.set(c, pair, h.now())
	response.OK(c, authResponse{Pair: pair})
}

func (h *Handler) logout(c *gin.Context) {
	token, ok := refreshToken(c)
	if !ok {
		return
	}
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err)
		return
	}
	h.cookies.clear(c)
	response.NoContent(c)
}

func (h *Handler) logoutAll(c *gin.Context) {
	revoked, err := h.svc.LogoutAll(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cookies.clear(c)
	response.OK(c, gin.H{"revoked": revoked})
}

func (h *Handler) me(c *gin.Context) {
	response.OK(c, userResponse{
		ID:       middleware.CurrentUserID(c),
		Username: middleware.CurrentUsername(c),
	})
}

// refreshToken reads the token from the JSON body, falling back to the cookie.
// It writes a 400 and returns false when the body is malformed.
func refreshToken(c *gin.Context) (string, bool) {
	var dto RefreshDTO
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return "", false
	}
	if dto.RefreshToken != "" {
		return dto.RefreshToken, true
	}
	cookie, _ := c.Cookie(RefreshCookie)
	return cookie, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUsernameTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, errPasswordLong):
		response.BadRequest(c, err.Error())
	case errors.Is(err, errInvalidLogin),
		errors.Is(err, errMissingToken):
		response.UnauthorizedMsg(c, err.Error())
	case errors.Is(err, session.ErrInvalidCredential),
		errors.Is(err, session.ErrExpiredOrRevoked),
		errors.Is(err, session.ErrTokenConsumed):
		response.UnauthorizedMsg(c, "refresh token expired or revoked")
	default:
		response.InternalError(c, err)
	}
}
