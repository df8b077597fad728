package api

import (
	"net/http"

	"foodgram/recipes"

	"github.com/gin-gonic/gin"
)

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.service.ListTags(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (s *Server) getTag(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrTagNotFound)
	if !ok {
		return
	}

	tag, err := s.service.GetTag(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tag)
}

func (s *Server) createTag(c *gin.Context) {
	var in recipes.TagInput
	if !bindJSON(c, &in) {
		return
	}

	tag, err := s.service.CreateTag(c.Request.Context(), viewerFrom(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

func (s *Server) listIngredients(c *gin.Context) {
	ingredients, err := s.service.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingredients)
}

func (s *Server) getIngredient(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrIngredientNotFound)
	if !ok {
		return
	}

	ingredient, err := s.service.GetIngredient(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingredient)
}
