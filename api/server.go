// Package api exposes the recipe services over HTTP.
package api

import (
	"net/http"

	"foodgram/export"
	"foodgram/media"
	"foodgram/recipes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Options struct {
	// PageSize is the page length when the client sends no limit
	PageSize int
	// RateLimit is the number of requests per second allowed per client IP;
	// zero disables limiting
	RateLimit float64
	RateBurst int
	Export    export.Renderer
}

type Server struct {
	service  *recipes.Service
	images   media.Store
	export   export.Renderer
	pageSize int
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(service *recipes.Service, images media.Store, opts Options) *gin.Engine {
	s := &Server{
		service:  service,
		images:   images,
		export:   opts.Export,
		pageSize: opts.PageSize,
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(), recordMetrics())
	if opts.RateLimit > 0 {
		router.Use(newRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst).middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/media/*key", s.serveMedia)

	api := router.Group("/api", s.authenticate())

	authGroup := api.Group("/auth/token")
	authGroup.POST("/login/", s.login)
	authGroup.POST("/logout/", s.logout)

	users := api.Group("/users")
	users.POST("/", s.register)
	users.GET("/", s.listUsers)
	users.GET("/me/", s.me)
	users.DELETE("/me/", s.deleteAccount)
	users.POST("/set_password/", s.setPassword)
	users.GET("/subscriptions/", s.listFollowing)
	users.GET("/:id/", s.getUser)
	users.POST("/:id/subscribe/", s.follow)
	users.DELETE("/:id/subscribe/", s.unfollow)

	tags := api.Group("/tags")
	tags.GET("/", s.listTags)
	tags.POST("/", s.createTag)
	tags.GET("/:id/", s.getTag)

	ingredients := api.Group("/ingredients")
	ingredients.GET("/", s.listIngredients)
	ingredients.GET("/:id/", s.getIngredient)

	recipeRoutes := api.Group("/recipes")
	recipeRoutes.GET("/", s.listRecipes)
	recipeRoutes.POST("/", s.createRecipe)
	recipeRoutes.GET("/download_shopping_cart/", s.downloadShoppingCart)
	recipeRoutes.GET("/:id/", s.getRecipe)
	recipeRoutes.PATCH("/:id/", s.updateRecipe)
	recipeRoutes.DELETE("/:id/", s.deleteRecipe)
	recipeRoutes.POST("/:id/favorite/", s.addFavourite)
	recipeRoutes.DELETE("/:id/favorite/", s.removeFavourite)
	recipeRoutes.POST("/:id/shopping_cart/", s.addToShoppingCart)
	recipeRoutes.DELETE("/:id/shopping_cart/", s.removeFromShoppingCart)

	return router
}
