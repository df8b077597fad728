package recipes

import (
	"context"

	"foodgram/metrics"
)

type membership struct {
	relation string
	add      func(ctx context.Context, userID, recipeID uint) error
	remove   func(ctx context.Context, userID, recipeID uint) error
	already  error
	absent   error
}

func (s *Service) favourites() membership {
	return membership{
		relation: "favourite",
		add:      s.store.AddFavourite,
		remove:   s.store.RemoveFavourite,
		already:  ErrAlreadyFavourited,
		absent:   ErrNotFavourited,
	}
}

func (s *Service) cart() membership {
	return membership{
		relation: "shopping_cart",
		add:      s.store.AddToCart,
		remove:   s.store.RemoveFromCart,
		already:  ErrAlreadyInCart,
		absent:   ErrNotInCart,
	}
}

// addMembership moves (viewer, recipe) from Absent to Present. Repeating it
// fails; the unique index reports the duplicate.
func (s *Service) addMembership(
	ctx context.Context,
	viewer Viewer,
	recipeID uint,
	m membership,
) (*ShortRecipeView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, wrapServiceError(err, "get recipe", storageErrors{notFound: ErrRecipeNotFound})
	}

	if err := m.add(ctx, viewer.UserID, recipeID); err != nil {
		return nil, wrapServiceError(err, "add "+m.relation, storageErrors{
			conflict: m.already,
			badInput: ErrRecipeNotFound,
		})
	}
	metrics.RecordMembershipChange(m.relation, "add")

	view := s.shortView(recipe)

	return &view, nil
}

// removeMembership moves (viewer, recipe) from Present to Absent. Removing an
// absent row fails.
func (s *Service) removeMembership(ctx context.Context, viewer Viewer, recipeID uint, m membership) error {
	if err := requireUser(viewer); err != nil {
		return err
	}

	if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
		return wrapServiceError(err, "get recipe", storageErrors{notFound: ErrRecipeNotFound})
	}

	if err := m.remove(ctx, viewer.UserID, recipeID); err != nil {
		return wrapServiceError(err, "remove "+m.relation, storageErrors{notFound: m.absent})
	}
	metrics.RecordMembershipChange(m.relation, "remove")

	return nil
}

func (s *Service) AddFavourite(ctx context.Context, viewer Viewer, recipeID uint) (*ShortRecipeView, error) {
	return s.addMembership(ctx, viewer, recipeID, s.favourites())
}

func (s *Service) RemoveFavourite(ctx context.Context, viewer Viewer, recipeID uint) error {
	return s.removeMembership(ctx, viewer, recipeID, s.favourites())
}

func (s *Service) AddToShoppingCart(ctx context.Context, viewer Viewer, recipeID uint) (*ShortRecipeView, error) {
	return s.addMembership(ctx, viewer, recipeID, s.cart())
}

func (s *Service) RemoveFromShoppingCart(ctx context.Context, viewer Viewer, recipeID uint) error {
	return s.removeMembership(ctx, viewer, recipeID, s.cart())
}

