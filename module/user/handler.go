package user

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	midsec "ChatHub/middleware/security"
	"ChatHub/module/user/model"
	"ChatHub/module/user/store"
	errs "ChatHub/tools/errs"
	"ChatHub/tools/ids"
	sec "ChatHub/tools/security"

	"github.com/gin-gonic/gin"
)

// Handler serves the REST auth surface next to the socket: login
// (register-or-login, issues the JWT the socket handshake carries) and
// a token check endpoint.
type Handler struct {
	Users *store.Repo
	Auth  sec.Options
}

type loginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	u, err := h.Users.CreateUser(c.Request.Context(), &model.User{
		UserID:       ids.GenerateString(),
		Name:         req.Name,
		Nickname:     req.Name,
		PasswordHash: hashPassword(req.Password),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.CodeOf(err))
		return
	}
	if u.PasswordHash != hashPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, errs.ErrNoPermission.WithDetail("wrong password"))
		return
	}

	token, _, expireAt, err := sec.Generate(h.Auth, u.UserID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.CodeOf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"expireAt": expireAt.UnixMilli(),
		"user": gin.H{
			"id":       u.UserID,
			"name":     u.Name,
			"nickname": u.Nickname,
		},
	})
}

// HandleCheck runs behind the bearer middleware; reaching it means the
// token is valid.
func (h *Handler) HandleCheck(c *gin.Context) {
	userID := midsec.UserID(c)
	u, err := h.Users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errs.CodeOf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       u.UserID,
		"name":     u.Name,
		"nickname": u.Nickname,
	})
}
