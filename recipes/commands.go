package recipes

// RecipeInput creates a recipe. Image is a base64 data URL.
type RecipeInput struct {
	Name        string           `json:"name"         validate:"required,max=200"`
	Text        string           `json:"text"         validate:"required"`
	CookingTime int              `json:"cooking_time" validate:"min=1"`
	Image       string           `json:"image"        validate:"required"`
	Tags        []uint           `json:"tags"`
	Ingredients []IngredientLine `json:"ingredients"`
}

// RecipeUpdate replaces a recipe. Nil scalar fields keep their value; tags
// and ingredients are always replaced wholesale.
type RecipeUpdate struct {
	Name        *string          `json:"name"         validate:"omitnil,min=1,max=200"`
	Text        *string          `json:"text"         validate:"omitnil,min=1"`
	CookingTime *int             `json:"cooking_time" validate:"omitnil,min=1"`
	Image       *string          `json:"image"        validate:"omitnil,min=1"`
	Tags        []uint           `json:"tags"`
	Ingredients []IngredientLine `json:"ingredients"`
}

// RecipeQuery selects a page of recipes. Favorited and InShoppingCart only
// apply to authenticated viewers.
type RecipeQuery struct {
	AuthorID       *uint
	TagSlugs       []string
	Favorited      bool
	InShoppingCart bool
	Limit          int
	Offset         int
}

type RegisterInput struct {
	Email     string `json:"email"      validate:"required,email,max=254"`
	Username  string `json:"username"   validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name"  validate:"required,max=150"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
}

type SetPasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

type TagInput struct {
	Name  string `json:"name"  validate:"required,max=200"`
	Color string `json:"color" validate:"required"`
	Slug  string `json:"slug"  validate:"required,max=200,slug"`
}
