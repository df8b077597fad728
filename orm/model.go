package orm

import (
	"time"
)

type User struct {
	ID        uint   `gorm:"primaryKey"                      json:"id"`
	Email     string `gorm:"size:254;not null;uniqueIndex"   json:"email"`
	Username  string `gorm:"size:150;not null;uniqueIndex"   json:"username"`
	FirstName string `gorm:"size:150;not null"               json:"firstName"`
	LastName  string `gorm:"size:150;not null"               json:"lastName"`
	Password  string `gorm:"size:128;not null"               json:"-"`
	IsAdmin   bool   `gorm:"not null;default:false"          json:"isAdmin"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// Ingredient is reference data loaded from CSV; users only read it.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey"                    json:"id"`
	Name            string `gorm:"size:200;not null;uniqueIndex" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null"             json:"measurementUnit"`
}

type Tag struct {
	ID    uint   `gorm:"primaryKey"                    json:"id"`
	Name  string `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Color string `gorm:"size:7;not null;uniqueIndex"   json:"color"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
}

type Recipe struct {
	ID          uint      `gorm:"primaryKey"                                  json:"id"`
	Name        string    `gorm:"size:200;not null"                           json:"name"`
	Text        string    `gorm:"type:text;not null"                          json:"text"`
	PubDate     time.Time `gorm:"autoCreateTime;not null;index"               json:"pubDate"`
	CookingTime int       `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cookingTime"`
	// Image is the storage key of the recipe picture
	Image string `gorm:"size:255;not null;index" json:"image"`

	// Author is a weak reference: deleting the user keeps the recipe
	AuthorID *uint `gorm:"index"                          json:"authorId"`
	Author   *User `gorm:"constraint:OnDelete:SET NULL;"  json:"author,omitempty"`

	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE;"  json:"tags,omitempty"`
	Ingredients []IngredientAmount `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"    json:"ingredients,omitempty"`
}

// IngredientAmount is an ingredient line owned by a recipe.
type IngredientAmount struct {
	ID           uint        `gorm:"primaryKey"                                        json:"id"`
	RecipeID     uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient"        json:"recipeId"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"  json:"ingredientId"`
	Ingredient   *Ingredient `gorm:"constraint:OnDelete:CASCADE;"                      json:"ingredient,omitempty"`
	Amount       int         `gorm:"not null;check:chk_ingredient_amounts_amount,amount >= 1" json:"amount"`
}

type Favourite struct {
	ID       uint    `gorm:"primaryKey"                                     json:"id"`
	UserID   uint    `gorm:"not null;uniqueIndex:idx_favourite_user_recipe" json:"userId"`
	RecipeID uint    `gorm:"not null;uniqueIndex:idx_favourite_user_recipe;index" json:"recipeId"`
	User     *User   `gorm:"constraint:OnDelete:CASCADE;"                   json:"-"`
	Recipe   *Recipe `gorm:"constraint:OnDelete:CASCADE;"                   json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type ShoppingCartEntry struct {
	ID       uint    `gorm:"primaryKey"                                json:"id"`
	UserID   uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"userId"`
	RecipeID uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index" json:"recipeId"`
	User     *User   `gorm:"constraint:OnDelete:CASCADE;"              json:"-"`
	Recipe   *Recipe `gorm:"constraint:OnDelete:CASCADE;"              json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type Follow struct {
	ID         uint  `gorm:"primaryKey"                                                  json:"id"`
	FollowerID uint  `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follows_self,follower_id <> followed_id" json:"followerId"`
	FollowedID uint  `gorm:"not null;uniqueIndex:idx_follow_pair;index"                  json:"followedId"`
	Follower   *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE;"          json:"-"`
	Followed   *User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE;"          json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Page restricts a listing; a non-positive Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows recipe listings. Zero values disable a criterion.
type RecipeFilter struct {
	AuthorID     *uint
	TagSlugs     []string
	FavouritedBy uint
	InCartOf     uint
	Page         Page
}

// IngredientTotal is one aggregated shopping list row.
type IngredientTotal struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurementUnit"`
	Total           int64  `json:"total"`
}
