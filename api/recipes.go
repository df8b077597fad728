package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"foodgram/export"
	"foodgram/media"
	"foodgram/recipes"

	"github.com/gin-gonic/gin"
)

// boolQuery treats "1" and "true" as set.
func boolQuery(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

func (s *Server) listRecipes(c *gin.Context) {
	p, ok := s.pageParams(c)
	if !ok {
		return
	}

	q := recipes.RecipeQuery{
		TagSlugs:       c.QueryArray("tags"),
		Favorited:      boolQuery(c, "is_favorited"),
		InShoppingCart: boolQuery(c, "is_in_shopping_cart"),
		Limit:          p.limit,
		Offset:         p.toPage().Offset,
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			abortInvalid(c, "author must be a user id")
			return
		}
		authorID := uint(id)
		q.AuthorID = &authorID
	}

	list, total, err := s.service.ListRecipes(c.Request.Context(), viewerFrom(c), q)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(c, p, total, list))
}

func (s *Server) createRecipe(c *gin.Context) {
	var in recipes.RecipeInput
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := s.service.CreateRecipe(c.Request.Context(), viewerFrom(c), in)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

func (s *Server) getRecipe(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrRecipeNotFound)
	if !ok {
		return
	}

	recipe, err := s.service.GetRecipe(c.Request.Context(), viewerFrom(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (s *Server) updateRecipe(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrRecipeNotFound)
	if !ok {
		return
	}

	var in recipes.RecipeUpdate
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := s.service.UpdateRecipe(c.Request.Context(), viewerFrom(c), id, in)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (s *Server) deleteRecipe(c *gin.Context) {
	id, ok := idParam(c, recipes.ErrRecipeNotFound)
	if !ok {
		return
	}

	if err := s.service.DeleteRecipe(c.Request.Context(), viewerFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type addFunc func(ctx context.Context, viewer recipes.Viewer, recipeID uint) (*recipes.ShortRecipeView, error)

type removeFunc func(ctx context.Context, viewer recipes.Viewer, recipeID uint) error

func (s *Server) addMembership(add addFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, recipes.ErrRecipeNotFound)
		if !ok {
			return
		}

		view, err := add(c.Request.Context(), viewerFrom(c), id)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, view)
	}
}

func (s *Server) removeMembership(remove removeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, recipes.ErrRecipeNotFound)
		if !ok {
			return
		}

		if err := remove(c.Request.Context(), viewerFrom(c), id); err != nil {
			abortWithError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (s *Server) addFavourite(c *gin.Context) {
	s.addMembership(s.service.AddFavourite)(c)
}

func (s *Server) removeFavourite(c *gin.Context) {
	s.removeMembership(s.service.RemoveFavourite)(c)
}

func (s *Server) addToShoppingCart(c *gin.Context) {
	s.addMembership(s.service.AddToShoppingCart)(c)
}

func (s *Server) removeFromShoppingCart(c *gin.Context) {
	s.removeMembership(s.service.RemoveFromShoppingCart)(c)
}

// downloadShoppingCart sends the aggregated shopping list as an attachment,
// as text unless format=pdf is requested.
func (s *Server) downloadShoppingCart(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		abortInvalid(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	viewer := viewerFrom(c)

	lines, err := s.service.ShoppingList(ctx, viewer)
	if err != nil {
		abortWithError(c, err)
		return
	}
	owner, err := s.service.Me(ctx, viewer)
	if err != nil {
		abortWithError(c, err)
		return
	}

	doc, err := s.export.Render(format, owner.Username, lines)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// serveMedia streams a stored image. Keys are content addressed, so
// responses never change.
func (s *Server) serveMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	content, err := s.images.GetImage(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, media.ErrImageNotFound) || errors.Is(err, media.ErrInvalidKey) {
			c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{
				Error:  "NotFound",
				Detail: "image not found",
			})

			return
		}

		abortWithError(c, err)

		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, media.ContentType(key), content)
}
