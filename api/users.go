package api

import (
	"net/http"
	"strconv"

	"foodgram/recipes"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type deleteAccountRequest struct {
	CurrentPassword string `json:"current_password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := s.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

func (s *Server) logout(c *gin.Context) {
	token := c.GetString(tokenKey)
	if token == "" {
		abortWithError(c, recipes.NewError(recipes.ErrUnauthenticated, ""))
		return
	}

	if err := s.service.Logout(c.Request.Context(), token); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) register(c *gin.Context) {
	var in recipes.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := s.service.Register(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) listUsers(c *gin.Context) {
	p, ok := s.pageParams(c)
	if !ok {
		return
	}

	users, total, err := s.service.ListUsers(c.Request.Context(), viewerFrom(c), p.toPage())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(c, p, total, users))
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := s.service.GetUser(c.Request.Context(), viewerFrom(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) me(c *gin.Context) {
	user, err := s.service.Me(c.Request.Context(), viewerFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := s.service.DeleteAccount(c.Request.Context(), viewerFrom(c), req.CurrentPassword); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) setPassword(c *gin.Context) {
	var in recipes.SetPasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := s.service.SetPassword(c.Request.Context(), viewerFrom(c), in); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// recipesLimit reads the optional "recipes_limit" query parameter. Missing,
// malformed and non-positive values yield zero, which selects the service
// default.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 1 {
		return 0
	}

	return n
}

func (s *Server) listFollowing(c *gin.Context) {
	limit := recipesLimit(c)
	p, ok := s.pageParams(c)
	if !ok {
		return
	}

	following, total, err := s.service.ListFollowing(c.Request.Context(), viewerFrom(c), limit, p.toPage())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(c, p, total, following))
}

func (s *Server) follow(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrUserNotFound)
	if !ok {
		return
	}
	limit := recipesLimit(c)

	view, err := s.service.Follow(c.Request.Context(), viewerFrom(c), id, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (s *Server) unfollow(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrUserNotFound)
	if !ok {
		return
	}

	if err := s.service.Unfollow(c.Request.Context(), viewerFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
