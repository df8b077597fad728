package recipes

import (
	"context"

	"foodgram/metrics"
	"foodgram/orm"
)

// DefaultRecipesLimit is the number of recipes nested in a follow view when
// the caller does not ask for a specific amount
const DefaultRecipesLimit = 3

func (s *Service) followView(ctx context.Context, user *orm.User, recipesLimit int) (*FollowView, error) {
	if recipesLimit <= 0 {
		recipesLimit = DefaultRecipesLimit
	}

	authorID := user.ID
	recipes, total, err := s.store.ListRecipes(ctx, orm.RecipeFilter{
		AuthorID: &authorID,
		Page:     orm.Page{Limit: recipesLimit},
	})
	if err != nil {
		return nil, wrapServiceError(err, "list author recipes", storageErrors{})
	}

	view := &FollowView{
		UserView:     userView(user, true),
		Recipes:      make([]ShortRecipeView, 0, len(recipes)),
		RecipesCount: total,
	}
	for i := range recipes {
		view.Recipes = append(view.Recipes, s.shortView(&recipes[i]))
	}

	return view, nil
}

// Follow subscribes the viewer to target and returns the target's profile
// with up to recipesLimit of their newest recipes.
func (s *Service) Follow(ctx context.Context, viewer Viewer, targetID uint, recipesLimit int) (*FollowView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	if viewer.UserID == targetID {
		return nil, NewError(ErrSelfFollowForbidden, "")
	}

	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, wrapServiceError(err, "get user", storageErrors{notFound: ErrUserNotFound})
	}

	if err := s.store.AddFollow(ctx, viewer.UserID, targetID); err != nil {
		return nil, wrapServiceError(err, "follow", storageErrors{
			conflict: ErrAlreadyFollowing,
			badInput: ErrUserNotFound,
		})
	}
	metrics.RecordMembershipChange("follow", "add")

	return s.followView(ctx, target, recipesLimit)
}

func (s *Service) Unfollow(ctx context.Context, viewer Viewer, targetID uint) error {
	if err := requireUser(viewer); err != nil {
		return err
	}

	if _, err := s.store.GetUser(ctx, targetID); err != nil {
		return wrapServiceError(err, "get user", storageErrors{notFound: ErrUserNotFound})
	}

	if err := s.store.RemoveFollow(ctx, viewer.UserID, targetID); err != nil {
		return wrapServiceError(err, "unfollow", storageErrors{notFound: ErrNotFollowing})
	}
	metrics.RecordMembershipChange("follow", "remove")

	return nil
}

// ListFollowing returns one follow view per user the viewer follows, in the
// order they were followed, and the total number of followed users.
func (s *Service) ListFollowing(
	ctx context.Context,
	viewer Viewer,
	recipesLimit int,
	page orm.Page,
) ([]FollowView, int64, error) {
	if err := requireUser(viewer); err != nil {
		return nil, 0, err
	}

	users, total, err := s.store.ListFollowing(ctx, viewer.UserID, page)
	if err != nil {
		return nil, 0, wrapServiceError(err, "list following", storageErrors{})
	}

	views := make([]FollowView, 0, len(users))
	for i := range users {
		view, err := s.followView(ctx, &users[i], recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}

	return views, total, nil
}
