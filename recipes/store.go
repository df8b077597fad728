package recipes

import (
	"context"

	"foodgram/orm"
)

// Store is the persistence port the services depend on. orm.DB implements it
// on PostgreSQL; orm/memoryStore implements it in memory.
type Store interface {
	CreateUser(ctx context.Context, user *orm.User) error
	GetUser(ctx context.Context, id uint) (*orm.User, error)
	GetUserByEmail(ctx context.Context, email string) (*orm.User, error)
	GetUserByUsername(ctx context.Context, username string) (*orm.User, error)
	ListUsers(ctx context.Context, page orm.Page) ([]orm.User, int64, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	DeleteUser(ctx context.Context, id uint) error

	ListTags(ctx context.Context) ([]orm.Tag, error)
	GetTag(ctx context.Context, id uint) (*orm.Tag, error)
	CountTags(ctx context.Context) (int64, error)
	FindTags(ctx context.Context, ids []uint) ([]orm.Tag, error)
	TagColorInUse(ctx context.Context, color string) (bool, error)
	CreateTag(ctx context.Context, tag *orm.Tag) error

	ListIngredients(ctx context.Context, prefix string) ([]orm.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*orm.Ingredient, error)
	FindIngredients(ctx context.Context, ids []uint) ([]orm.Ingredient, error)
	UpsertIngredient(ctx context.Context, ingredient *orm.Ingredient) error

	CreateRecipe(ctx context.Context, recipe *orm.Recipe, tagIDs []uint, lines []orm.IngredientAmount) error
	UpdateRecipe(ctx context.Context, recipe *orm.Recipe, tagIDs []uint, lines []orm.IngredientAmount) error
	GetRecipe(ctx context.Context, id uint) (*orm.Recipe, error)
	ListRecipes(ctx context.Context, filter orm.RecipeFilter) ([]orm.Recipe, int64, error)
	DeleteRecipe(ctx context.Context, id uint) error
	ImageInUse(ctx context.Context, key string) (bool, error)
	ShoppingListTotals(ctx context.Context, userID uint) ([]orm.IngredientTotal, error)

	AddFavourite(ctx context.Context, userID, recipeID uint) error
	RemoveFavourite(ctx context.Context, userID, recipeID uint) error
	FavouritedAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	AddToCart(ctx context.Context, userID, recipeID uint) error
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	InCartAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	AddFollow(ctx context.Context, followerID, followedID uint) error
	RemoveFollow(ctx context.Context, followerID, followedID uint) error
	FollowingAmong(ctx context.Context, followerID uint, userIDs []uint) (map[uint]bool, error)
	ListFollowing(ctx context.Context, followerID uint, page orm.Page) ([]orm.User, int64, error)
}

var _ Store = (*orm.DB)(nil)
