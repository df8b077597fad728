package recipes

import (
	"strings"
	"time"

	"foodgram/orm"
)

// Viewer is the acting user of an operation. The zero value is Anonymous.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

var Anonymous = Viewer{}

func (v Viewer) Authenticated() bool {
	return v.UserID != 0
}

type UserView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientAmountView is an ingredient line flattened with its reference data
type IngredientAmountView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []TagView              `json:"tags"`
	Author           *UserView              `json:"author"`
	Ingredients      []IngredientAmountView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
	PubDate          time.Time              `json:"pub_date"`
}

// ShortRecipeView is returned by favourite and cart additions and nested in
// follow views.
type ShortRecipeView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type FollowView struct {
	UserView

	Recipes      []ShortRecipeView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

type ShoppingListLine struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}

func userView(user *orm.User, subscribed bool) UserView {
	return UserView{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func tagView(tag orm.Tag) TagView {
	return TagView{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func ingredientView(ingredient orm.Ingredient) IngredientView {
	return IngredientView{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

func (s *Service) imageURL(key string) string {
	if key == "" {
		return ""
	}

	return strings.TrimSuffix(s.mediaURL, "/") + "/" + key
}

func (s *Service) shortView(recipe *orm.Recipe) ShortRecipeView {
	return ShortRecipeView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       s.imageURL(recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}
