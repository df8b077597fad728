package recipes

import (
	"context"
	"errors"

	"foodgram/orm"

	"github.com/rs/zerolog/log"
)

func (s *Service) ListTags(ctx context.Context) ([]TagView, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, wrapServiceError(err, "list tags", storageErrors{})
	}

	views := make([]TagView, 0, len(tags))
	for _, tag := range tags {
		views = append(views, tagView(tag))
	}

	return views, nil
}

func (s *Service) GetTag(ctx context.Context, id uint) (*TagView, error) {
	tag, err := s.store.GetTag(ctx, id)
	if err != nil {
		return nil, wrapServiceError(err, "get tag", storageErrors{notFound: ErrTagNotFound})
	}
	view := tagView(*tag)

	return &view, nil
}

// CreateTag is restricted to admins.
func (s *Service) CreateTag(ctx context.Context, viewer Viewer, in TagInput) (*TagView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	if !viewer.IsAdmin {
		return nil, NewError(ErrForbidden, "only admins can create tags")
	}
	if err := s.checkStruct(in); err != nil {
		return nil, err
	}

	taken, err := s.store.TagColorInUse(ctx, in.Color)
	if err != nil {
		return nil, wrapServiceError(err, "check tag color", storageErrors{})
	}
	if err := ValidateColor(in.Color, taken); err != nil {
		return nil, err
	}

	tag := &orm.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		// a concurrent insert may have claimed the colour after the check above
		var conflictErr *orm.ConflictError
		if errors.As(err, &conflictErr) {
			if taken, checkErr := s.store.TagColorInUse(ctx, in.Color); checkErr == nil && taken {
				return nil, ValidateColor(in.Color, true)
			}
		}

		return nil, wrapServiceError(err, "create tag", storageErrors{conflict: ErrTagTaken})
	}
	log.Info().Uint("tag", tag.ID).Str("slug", tag.Slug).Msg("tag created")

	view := tagView(*tag)

	return &view, nil
}

// ListIngredients searches ingredients by case-insensitive name prefix.
func (s *Service) ListIngredients(ctx context.Context, namePrefix string) ([]IngredientView, error) {
	ingredients, err := s.store.ListIngredients(ctx, namePrefix)
	if err != nil {
		return nil, wrapServiceError(err, "list ingredients", storageErrors{})
	}

	views := make([]IngredientView, 0, len(ingredients))
	for _, ingredient := range ingredients {
		views = append(views, ingredientView(ingredient))
	}

	return views, nil
}

func (s *Service) GetIngredient(ctx context.Context, id uint) (*IngredientView, error) {
	ingredient, err := s.store.GetIngredient(ctx, id)
	if err != nil {
		return nil, wrapServiceError(err, "get ingredient", storageErrors{notFound: ErrIngredientNotFound})
	}
	view := ingredientView(*ingredient)

	return &view, nil
}
