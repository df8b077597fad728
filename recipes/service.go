package recipes

import (
	"context"
	"errors"
	"fmt"

	"foodgram/auth"
	"foodgram/media"
	"foodgram/metrics"
	"foodgram/orm"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Settings of the services that do not come from collaborators
type Settings struct {
	// MediaURL prefixes image keys in views, e.g. "/media/"
	MediaURL string
	Images   media.Normalizer
}

// Service implements recipes, memberships, follows, accounts and reference
// data on top of a Store.
type Service struct {
	store    Store
	images   media.Store
	tokens   *auth.Issuer
	mediaURL string
	imageCfg media.Normalizer
	validate *validator.Validate
}

func New(store Store, images media.Store, tokens *auth.Issuer, settings Settings) *Service {
	return &Service{
		store:    store,
		images:   images,
		tokens:   tokens,
		mediaURL: settings.MediaURL,
		imageCfg: settings.Images,
		validate: newValidator(),
	}
}

func requireUser(viewer Viewer) error {
	if !viewer.Authenticated() {
		return NewError(ErrUnauthenticated, "")
	}

	return nil
}

func canEdit(viewer Viewer, recipe *orm.Recipe) bool {
	if viewer.IsAdmin {
		return true
	}

	return recipe.AuthorID != nil && *recipe.AuthorID == viewer.UserID
}

// resolveReferences runs every validation rule on tags and ingredient lines
// and checks that each id refers to an existing row.
func (s *Service) resolveReferences(ctx context.Context, tagIDs []uint, lines []IngredientLine) error {
	if err := ValidateIngredients(lines); err != nil {
		return err
	}

	total, err := s.store.CountTags(ctx)
	if err != nil {
		return wrapServiceError(err, "count tags", storageErrors{})
	}
	if err := ValidateTags(tagIDs, total); err != nil {
		return err
	}

	tags, err := s.store.FindTags(ctx, tagIDs)
	if err != nil {
		return wrapServiceError(err, "find tags", storageErrors{})
	}
	if len(tags) != len(tagIDs) {
		return NewError(ErrUnknownTag, fmt.Sprintf("unknown tag among %v", tagIDs))
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	ingredients, err := s.store.FindIngredients(ctx, ids)
	if err != nil {
		return wrapServiceError(err, "find ingredients", storageErrors{})
	}
	if len(ingredients) != len(ids) {
		return NewError(ErrUnknownIngredient, fmt.Sprintf("unknown ingredient among %v", ids))
	}

	return nil
}

func toAmounts(lines []IngredientLine) []orm.IngredientAmount {
	amounts := make([]orm.IngredientAmount, 0, len(lines))
	for _, line := range lines {
		amounts = append(amounts, orm.IngredientAmount{IngredientID: line.ID, Amount: line.Amount})
	}

	return amounts
}

func (s *Service) storeImage(ctx context.Context, dataURL string) (string, error) {
	img, err := s.imageCfg.Normalize(dataURL)
	if err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			return "", newErrorWithCause(ErrInvalidImage, err.Error(), err)
		}

		return "", newErrorWithCause(ErrInternal, "Internal server error during store image", err)
	}

	key, err := s.images.StoreImage(ctx, img.Content, img.Ext)
	if err != nil {
		log.Error().Err(err).Msg("failed to store recipe image")

		return "", newErrorWithCause(ErrInternal, "Internal server error during store image", err)
	}

	return key, nil
}

// releaseImage deletes the image blob unless a recipe still references it.
// Failures are logged only; a leftover blob is harmless.
func (s *Service) releaseImage(ctx context.Context, key string) {
	if key == "" {
		return
	}

	inUse, err := s.store.ImageInUse(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("image", key).Msg("failed to check image usage")
		return
	}
	if inUse {
		return
	}

	if err := s.images.DeleteImage(ctx, key); err != nil && !errors.Is(err, media.ErrImageNotFound) {
		log.Warn().Err(err).Str("image", key).Msg("failed to delete unused image")
	}
}

var recipeWriteErrors = storageErrors{
	notFound: ErrRecipeNotFound,
	conflict: ErrDuplicateIngredient,
}

func (s *Service) CreateRecipe(ctx context.Context, viewer Viewer, in RecipeInput) (*RecipeView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	if err := s.checkStruct(in); err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, in.Tags, in.Ingredients); err != nil {
		return nil, err
	}

	key, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	authorID := viewer.UserID
	recipe := &orm.Recipe{
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       key,
		AuthorID:    &authorID,
	}
	if err := s.store.CreateRecipe(ctx, recipe, in.Tags, toAmounts(in.Ingredients)); err != nil {
		s.releaseImage(ctx, key)

		return nil, wrapServiceError(err, "create recipe", recipeWriteErrors)
	}

	metrics.RecordRecipeChange("create")
	log.Info().
		Uint("recipe", recipe.ID).
		Uint("author", viewer.UserID).
		Msg("recipe created")

	return s.GetRecipe(ctx, viewer, recipe.ID)
}

func (s *Service) UpdateRecipe(
	ctx context.Context,
	viewer Viewer,
	recipeID uint,
	in RecipeUpdate,
) (*RecipeView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, wrapServiceError(err, "get recipe", storageErrors{notFound: ErrRecipeNotFound})
	}
	if !canEdit(viewer, recipe) {
		return nil, NewError(ErrForbidden, "only the author can change this recipe")
	}

	if err := s.checkStruct(in); err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, in.Tags, in.Ingredients); err != nil {
		return nil, err
	}

	updated := &orm.Recipe{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		Image:       recipe.Image,
	}
	if in.Name != nil {
		updated.Name = *in.Name
	}
	if in.Text != nil {
		updated.Text = *in.Text
	}
	if in.CookingTime != nil {
		updated.CookingTime = *in.CookingTime
	}
	if in.Image != nil {
		key, err := s.storeImage(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		updated.Image = key
	}

	if err := s.store.UpdateRecipe(ctx, updated, in.Tags, toAmounts(in.Ingredients)); err != nil {
		if updated.Image != recipe.Image {
			s.releaseImage(ctx, updated.Image)
		}

		return nil, wrapServiceError(err, "update recipe", recipeWriteErrors)
	}
	if updated.Image != recipe.Image {
		s.releaseImage(ctx, recipe.Image)
	}

	metrics.RecordRecipeChange("update")
	log.Info().Uint("recipe", recipe.ID).Uint("user", viewer.UserID).Msg("recipe updated")

	return s.GetRecipe(ctx, viewer, recipe.ID)
}

func (s *Service) DeleteRecipe(ctx context.Context, viewer Viewer, recipeID uint) error {
	if err := requireUser(viewer); err != nil {
		return err
	}

	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return wrapServiceError(err, "get recipe", storageErrors{notFound: ErrRecipeNotFound})
	}
	if !canEdit(viewer, recipe) {
		return NewError(ErrForbidden, "only the author can delete this recipe")
	}

	if err := s.store.DeleteRecipe(ctx, recipeID); err != nil {
		return wrapServiceError(err, "delete recipe", storageErrors{notFound: ErrRecipeNotFound})
	}
	s.releaseImage(ctx, recipe.Image)

	metrics.RecordRecipeChange("delete")
	log.Info().Uint("recipe", recipeID).Uint("user", viewer.UserID).Msg("recipe deleted")

	return nil
}

func (s *Service) GetRecipe(ctx context.Context, viewer Viewer, recipeID uint) (*RecipeView, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, wrapServiceError(err, "get recipe", storageErrors{notFound: ErrRecipeNotFound})
	}

	views, err := s.renderForRead(ctx, viewer, []orm.Recipe{*recipe})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// ListRecipes returns one page of recipes, newest first, and the total number
// of recipes matching the query.
func (s *Service) ListRecipes(ctx context.Context, viewer Viewer, q RecipeQuery) ([]RecipeView, int64, error) {
	filter := orm.RecipeFilter{
		AuthorID: q.AuthorID,
		TagSlugs: q.TagSlugs,
		Page:     orm.Page{Limit: q.Limit, Offset: q.Offset},
	}
	if viewer.Authenticated() {
		if q.Favorited {
			filter.FavouritedBy = viewer.UserID
		}
		if q.InShoppingCart {
			filter.InCartOf = viewer.UserID
		}
	}

	recipes, total, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, 0, wrapServiceError(err, "list recipes", storageErrors{})
	}

	views, err := s.renderForRead(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}

	return views, total, nil
}

// renderForRead projects recipes into read views with viewer-relative flags,
// which are always false for anonymous viewers.
func (s *Service) renderForRead(ctx context.Context, viewer Viewer, recipes []orm.Recipe) ([]RecipeView, error) {
	favourited := map[uint]bool{}
	inCart := map[uint]bool{}
	following := map[uint]bool{}

	if viewer.Authenticated() && len(recipes) > 0 {
		recipeIDs := make([]uint, 0, len(recipes))
		authorIDs := make([]uint, 0, len(recipes))
		for _, recipe := range recipes {
			recipeIDs = append(recipeIDs, recipe.ID)
			if recipe.AuthorID != nil {
				authorIDs = append(authorIDs, *recipe.AuthorID)
			}
		}

		var err error
		if favourited, err = s.store.FavouritedAmong(ctx, viewer.UserID, recipeIDs); err != nil {
			return nil, wrapServiceError(err, "lookup favourites", storageErrors{})
		}
		if inCart, err = s.store.InCartAmong(ctx, viewer.UserID, recipeIDs); err != nil {
			return nil, wrapServiceError(err, "lookup shopping cart", storageErrors{})
		}
		if following, err = s.store.FollowingAmong(ctx, viewer.UserID, authorIDs); err != nil {
			return nil, wrapServiceError(err, "lookup follows", storageErrors{})
		}
	}

	views := make([]RecipeView, 0, len(recipes))
	for _, recipe := range recipes {
		view := RecipeView{
			ID:               recipe.ID,
			Tags:             make([]TagView, 0, len(recipe.Tags)),
			Ingredients:      make([]IngredientAmountView, 0, len(recipe.Ingredients)),
			IsFavorited:      favourited[recipe.ID],
			IsInShoppingCart: inCart[recipe.ID],
			Name:             recipe.Name,
			Image:            s.imageURL(recipe.Image),
			Text:             recipe.Text,
			CookingTime:      recipe.CookingTime,
			PubDate:          recipe.PubDate,
		}
		if recipe.Author != nil {
			author := userView(recipe.Author, following[recipe.Author.ID])
			view.Author = &author
		}
		for _, tag := range recipe.Tags {
			view.Tags = append(view.Tags, tagView(tag))
		}
		for _, line := range recipe.Ingredients {
			amount := IngredientAmountView{ID: line.IngredientID, Amount: line.Amount}
			if line.Ingredient != nil {
				amount.Name = line.Ingredient.Name
				amount.MeasurementUnit = line.Ingredient.MeasurementUnit
			}
			view.Ingredients = append(view.Ingredients, amount)
		}
		views = append(views, view)
	}

	return views, nil
}
