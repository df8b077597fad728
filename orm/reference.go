package orm

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *DB) ListTags(ctx context.Context) ([]Tag, error) {
	tags, err := gorm.G[Tag](db.dbGorm).Order("name").Find(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "list tags", "")
	}

	return tags, nil
}

func (db *DB) GetTag(ctx context.Context, id uint) (*Tag, error) {
	tag, err := gorm.G[Tag](db.dbGorm).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "get tag", fmt.Sprintf("id=%d", id))
	}

	return &tag, nil
}

func (db *DB) CountTags(ctx context.Context) (int64, error) {
	count, err := gorm.G[Tag](db.dbGorm).Count(ctx, "*")
	if err != nil {
		return 0, wrapErrorWithDetails(err, "count tags", "")
	}

	return count, nil
}

// FindTags returns the tags among ids that exist; missing ids are skipped.
func (db *DB) FindTags(ctx context.Context, ids []uint) ([]Tag, error) {
	if len(ids) == 0 {
		return []Tag{}, nil
	}

	tags, err := gorm.G[Tag](db.dbGorm).Where("id IN ?", ids).Order("name").Find(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "find tags", fmt.Sprintf("ids=%v", ids))
	}

	return tags, nil
}

// TagColorInUse reports whether any tag already uses color, ignoring case.
func (db *DB) TagColorInUse(ctx context.Context, color string) (bool, error) {
	count, err := gorm.G[Tag](db.dbGorm).
		Where("LOWER(color) = ?", strings.ToLower(color)).
		Count(ctx, "*")
	if err != nil {
		return false, wrapErrorWithDetails(err, "check tag color", fmt.Sprintf("color=%q", color))
	}

	return count > 0, nil
}

func (db *DB) CreateTag(ctx context.Context, tag *Tag) error {
	if tag == nil || tag.Name == "" || tag.Slug == "" || tag.Color == "" {
		return &BadInputError{Reason: "tag must have name, color and slug"}
	}

	return wrapErrorWithDetails(
		gorm.G[Tag](db.dbGorm).Create(ctx, tag),
		"create tag",
		fmt.Sprintf("name=%q, color=%q, slug=%q", tag.Name, tag.Color, tag.Slug),
	)
}

// ListIngredients returns ingredients whose name starts with prefix,
// case-insensitively. An empty prefix lists everything.
func (db *DB) ListIngredients(ctx context.Context, prefix string) ([]Ingredient, error) {
	q := gorm.G[Ingredient](db.dbGorm).Order("name")
	if prefix != "" {
		q = q.Where("LOWER(name) LIKE ?", escapeLike(strings.ToLower(prefix))+"%")
	}

	ingredients, err := q.Find(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "list ingredients", fmt.Sprintf("prefix=%q", prefix))
	}

	return ingredients, nil
}

func (db *DB) GetIngredient(ctx context.Context, id uint) (*Ingredient, error) {
	ingredient, err := gorm.G[Ingredient](db.dbGorm).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "get ingredient", fmt.Sprintf("id=%d", id))
	}

	return &ingredient, nil
}

// FindIngredients returns the ingredients among ids that exist.
func (db *DB) FindIngredients(ctx context.Context, ids []uint) ([]Ingredient, error) {
	if len(ids) == 0 {
		return []Ingredient{}, nil
	}

	ingredients, err := gorm.G[Ingredient](db.dbGorm).Where("id IN ?", ids).Find(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "find ingredients", fmt.Sprintf("ids=%v", ids))
	}

	return ingredients, nil
}

// UpsertIngredient inserts the ingredient or updates the measurement unit of
// the existing one with the same name.
func (db *DB) UpsertIngredient(ctx context.Context, ingredient *Ingredient) error {
	if ingredient == nil || ingredient.Name == "" || ingredient.MeasurementUnit == "" {
		return &BadInputError{Reason: "ingredient must have name and measurement unit"}
	}

	err := db.dbGorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"measurement_unit"}),
	}).Create(ingredient).Error

	return wrapErrorWithDetails(
		err,
		"upsert ingredient",
		fmt.Sprintf("name=%q, unit=%q", ingredient.Name, ingredient.MeasurementUnit),
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
