package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/config"
	"github.com/virtuve/class-booking/internal/utils"
)

// AuthHandler serves the admin session endpoints.  There is a single
// admin account configured through the environment; the password is
// compared against its bcrypt hash and a short-lived HS256 JWT is
// issued on success.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

// Login verifies the admin credentials and returns an access token.
// Wrong username and wrong password produce the same response so the
// account name cannot be probed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	if req.Username != h.Cfg.AdminUsername || !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, "ADMIN", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		Token:   access.Token,
		Expires: access.Exp.Format(time.RFC3339),
	})
}

// Logout exists for frontend symmetry.  Tokens are stateless and simply
// expire; the client discards its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Check reports whether the presented token is valid.  It sits behind
// the JWT middleware, so reaching the handler means the token passed.
func (h *AuthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": true,
		"subject":       c.Get("subject"),
	})
}
