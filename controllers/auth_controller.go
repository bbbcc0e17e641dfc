package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/middleware"
	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
	"github.com/mzlab/mzwake/utils"
)

// AuthController issues guest identity tokens. There are no passwords or
// account linking; a device asks for an identity once and keeps the token.
type AuthController struct {
	store  store.Store
	tokens *utils.TokenManager
}

// NewAuthController creates a new controller instance.
func NewAuthController(st store.Store, tm *utils.TokenManager) *AuthController {
	return &AuthController{store: st, tokens: tm}
}

// Guest creates a user for the given display name and returns a bearer token.
func (a *AuthController) Guest(ctx *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1,max=64"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	user := models.User{Name: strings.TrimSpace(req.Name)}
	if user.Name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "name cannot be empty")
		return
	}
	if err := a.store.CreateUser(ctx, &user); err != nil {
		writeDomainError(ctx, err)
		return
	}

	token, err := a.tokens.Generate(user.ID, user.Name)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's record.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}
