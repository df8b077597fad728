package orm

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateRecipe stores the recipe together with its tag links and ingredient
// lines in one transaction. The recipe ID is set on success.
func (db *DB) CreateRecipe(
	ctx context.Context,
	recipe *Recipe,
	tagIDs []uint,
	lines []IngredientAmount,
) error {
	if recipe == nil {
		return &BadInputError{Reason: "nil recipe"}
	}

	err := db.dbGorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return wrapErrorWithDetails(err, "create recipe", fmt.Sprintf("name=%q", recipe.Name))
		}

		return replaceRecipeChildren(tx, recipe.ID, tagIDs, lines)
	})

	//nolint:wrapcheck // Error already wrapped
	return err
}

// UpdateRecipe overwrites the scalar fields of an existing recipe and
// regenerates its tag links and ingredient lines. Nothing changes if any step
// fails.
func (db *DB) UpdateRecipe(
	ctx context.Context,
	recipe *Recipe,
	tagIDs []uint,
	lines []IngredientAmount,
) error {
	if recipe == nil {
		return &BadInputError{Reason: "nil recipe"}
	}
	detail := fmt.Sprintf("id=%d", recipe.ID)

	err := db.dbGorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Recipe{}).Where("id = ?", recipe.ID).Updates(map[string]any{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
			"image":        recipe.Image,
		})
		if res.Error != nil {
			return wrapErrorWithDetails(res.Error, "update recipe", detail)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Search: "update recipe (" + detail + ")"}
		}

		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipe.ID).Error; err != nil {
			return wrapErrorWithDetails(err, "clear recipe tags", detail)
		}
		if _, err := gorm.G[IngredientAmount](tx).
			Where("recipe_id = ?", recipe.ID).
			Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "clear recipe ingredients", detail)
		}

		return replaceRecipeChildren(tx, recipe.ID, tagIDs, lines)
	})

	//nolint:wrapcheck // Error already wrapped
	return err
}

func replaceRecipeChildren(
	tx *gorm.DB,
	recipeID uint,
	tagIDs []uint,
	lines []IngredientAmount,
) error {
	detail := fmt.Sprintf("id=%d", recipeID)

	if len(tagIDs) > 0 {
		links := make([]map[string]any, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			links = append(links, map[string]any{"recipe_id": recipeID, "tag_id": tagID})
		}
		if err := tx.Table("recipe_tags").Create(links).Error; err != nil {
			return wrapErrorWithDetails(err, "link recipe tags", detail)
		}
	}

	if len(lines) > 0 {
		rows := make([]IngredientAmount, 0, len(lines))
		for _, line := range lines {
			rows = append(rows, IngredientAmount{
				RecipeID:     recipeID,
				IngredientID: line.IngredientID,
				Amount:       line.Amount,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return wrapErrorWithDetails(err, "create recipe ingredients", detail)
		}
	}

	return nil
}

func withRecipeDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Ingredients.Ingredient")
}

func (db *DB) GetRecipe(ctx context.Context, id uint) (*Recipe, error) {
	var recipe Recipe

	err := withRecipeDetails(db.dbGorm.WithContext(ctx)).
		Where("id = ?", id).
		First(&recipe).Error
	if err != nil {
		return nil, wrapErrorWithDetails(err, "get recipe", fmt.Sprintf("id=%d", id))
	}

	return &recipe, nil
}

func recipeFilterScope(filter RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if filter.AuthorID != nil {
			q = q.Where("recipes.author_id = ?", *filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			q = q.Where(`EXISTS (
				SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
				WHERE rt.recipe_id = recipes.id AND t.slug IN ?)`, filter.TagSlugs)
		}
		if filter.FavouritedBy != 0 {
			q = q.Where(`EXISTS (
				SELECT 1 FROM favourites f
				WHERE f.recipe_id = recipes.id AND f.user_id = ?)`, filter.FavouritedBy)
		}
		if filter.InCartOf != 0 {
			q = q.Where(`EXISTS (
				SELECT 1 FROM shopping_cart_entries sc
				WHERE sc.recipe_id = recipes.id AND sc.user_id = ?)`, filter.InCartOf)
		}

		return q
	}
}

// ListRecipes returns one page of recipes matching the filter, newest first,
// and the number of matching recipes across all pages.
func (db *DB) ListRecipes(ctx context.Context, filter RecipeFilter) ([]Recipe, int64, error) {
	detail := fmt.Sprintf(
		"tags=%v, limit=%d, offset=%d",
		filter.TagSlugs,
		filter.Page.Limit,
		filter.Page.Offset,
	)

	var total int64
	err := db.dbGorm.WithContext(ctx).
		Model(&Recipe{}).
		Scopes(recipeFilterScope(filter)).
		Count(&total).Error
	if err != nil {
		return nil, 0, wrapErrorWithDetails(err, "count recipes", detail)
	}

	q := withRecipeDetails(db.dbGorm.WithContext(ctx)).
		Scopes(recipeFilterScope(filter)).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC")
	if filter.Page.Limit > 0 {
		q = q.Limit(filter.Page.Limit)
	}
	if filter.Page.Offset > 0 {
		q = q.Offset(filter.Page.Offset)
	}

	recipes := []Recipe{}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, wrapErrorWithDetails(err, "list recipes", detail)
	}

	return recipes, total, nil
}

// DeleteRecipe removes the recipe with its ingredient lines, tag links,
// favourites and shopping cart entries.
func (db *DB) DeleteRecipe(ctx context.Context, id uint) error {
	detail := fmt.Sprintf("id=%d", id)

	err := db.dbGorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := gorm.G[Favourite](tx).Where("recipe_id = ?", id).Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "delete recipe favourites", detail)
		}
		if _, err := gorm.G[ShoppingCartEntry](tx).Where("recipe_id = ?", id).Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "delete recipe cart entries", detail)
		}
		if _, err := gorm.G[IngredientAmount](tx).Where("recipe_id = ?", id).Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "delete recipe ingredients", detail)
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return wrapErrorWithDetails(err, "delete recipe tags", detail)
		}

		rows, err := gorm.G[Recipe](tx).Where("id = ?", id).Delete(ctx)
		if err != nil {
			return wrapErrorWithDetails(err, "delete recipe", detail)
		}
		if rows == 0 {
			return &NotFoundError{Search: "delete recipe (" + detail + ")"}
		}

		return nil
	})

	//nolint:wrapcheck // Error already wrapped
	return err
}

// ImageInUse reports whether any recipe still references the image key.
func (db *DB) ImageInUse(ctx context.Context, key string) (bool, error) {
	count, err := gorm.G[Recipe](db.dbGorm).Where("image = ?", key).Count(ctx, "*")
	if err != nil {
		return false, wrapErrorWithDetails(err, "check image usage", fmt.Sprintf("key=%q", key))
	}

	return count > 0, nil
}

// ShoppingListTotals sums ingredient amounts over every recipe in the user's
// shopping cart, one row per ingredient name and unit, ordered by name then
// unit.
func (db *DB) ShoppingListTotals(ctx context.Context, userID uint) ([]IngredientTotal, error) {
	totals := []IngredientTotal{}

	err := db.dbGorm.WithContext(ctx).Raw(`
		SELECT i.name AS name, i.measurement_unit AS measurement_unit, SUM(ia.amount) AS total
		FROM shopping_cart_entries sc
		JOIN ingredient_amounts ia ON ia.recipe_id = sc.recipe_id
		JOIN ingredients i ON i.id = ia.ingredient_id
		WHERE sc.user_id = ?
		GROUP BY i.name, i.measurement_unit
		ORDER BY i.name, i.measurement_unit`, userID).
		Scan(&totals).Error
	if err != nil {
		return nil, wrapErrorWithDetails(err, "shopping list totals", fmt.Sprintf("user=%d", userID))
	}

	return totals, nil
}
