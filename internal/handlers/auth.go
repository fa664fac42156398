package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/srijanmgr/chiyapasal/internal/hash"
	"github.com/srijanmgr/chiyapasal/internal/logging"
	"github.com/srijanmgr/chiyapasal/internal/models"
)

const accessTokenTTL = 12 * time.Hour

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
}

func CreateCookie(name string, value string, path string, expTime time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.StaffUser
	if err := h.DB.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		l.Warn("login_failed", "status", 401, "reason", "unknown user")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	expires := time.Now().Add(accessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Username,
		"role": user.Role,
		"iat":  time.Now().Unix(),
		"exp":  expires.Unix(),
	})
	signed, err := token.SignedString(h.JWTSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot sign token")
	}

	c.SetCookie(CreateCookie("accessToken", signed, "/", expires))
	l.Info("login_success", "username", user.Username)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	return c.NoContent(http.StatusNoContent)
}

// EnsureStaff creates the initial staff account from configuration when
// none exists yet.
func EnsureStaff(ctx context.Context, db *gorm.DB, username, password string) error {
	var existing models.StaffUser
	err := db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if password == "" {
		return errors.New("staff password is not configured")
	}

	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(&models.StaffUser{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         "staff",
	}).Error
}
