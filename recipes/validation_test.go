package recipes_test

import (
	"testing"

	"foodgram/recipes"

	"github.com/stretchr/testify/assert"
)

func TestValidateIngredients(t *testing.T) {
	tests := []struct {
		name  string
		lines []recipes.IngredientLine
		want  error
	}{
		{"valid", []recipes.IngredientLine{{ID: 1, Amount: 2}, {ID: 2, Amount: 1}}, nil},
		{"empty", nil, recipes.ErrEmptyIngredients},
		{"zero amount", []recipes.IngredientLine{{ID: 1, Amount: 0}}, recipes.ErrInvalidAmount},
		{"negative amount", []recipes.IngredientLine{{ID: 1, Amount: 3}, {ID: 2, Amount: -1}}, recipes.ErrInvalidAmount},
		{"duplicate", []recipes.IngredientLine{{ID: 1, Amount: 2}, {ID: 1, Amount: 3}}, recipes.ErrDuplicateIngredient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := recipes.ValidateIngredients(tt.lines)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateTags(t *testing.T) {
	tests := []struct {
		name  string
		ids   []uint
		total int64
		want  error
	}{
		{"single", []uint{1}, 3, nil},
		{"all tags", []uint{1, 2, 3}, 3, nil},
		{"empty", []uint{}, 3, recipes.ErrInvalidTagCount},
		{"more than exist", []uint{1, 2, 3, 4}, 3, recipes.ErrInvalidTagCount},
		{"no tags defined", []uint{1}, 0, recipes.ErrInvalidTagCount},
		{"duplicate", []uint{1, 1}, 3, recipes.ErrDuplicateTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := recipes.ValidateTags(tt.ids, tt.total)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		taken bool
		want  error
	}{
		{"lower case", "#ff00aa", false, nil},
		{"upper case", "#FF00AA", false, nil},
		{"taken", "#FF00AA", true, recipes.ErrColorTaken},
		{"bad digit", "#gg00aa", false, recipes.ErrInvalidColorFormat},
		{"mixed case", "#Ff00aa", false, recipes.ErrInvalidColorFormat},
		{"short", "#fff", false, recipes.ErrInvalidColorFormat},
		{"no hash", "ff00aa", false, recipes.ErrInvalidColorFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := recipes.ValidateColor(tt.value, tt.taken)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRenderShoppingList(t *testing.T) {
	text := recipes.RenderShoppingList([]recipes.ShoppingListLine{
		{Name: "Flour", MeasurementUnit: "g", Amount: 500},
		{Name: "Salt", MeasurementUnit: "g", Amount: 25},
	})

	assert.Equal(t, "Flour (g) — 500\nSalt (g) — 25\n", text)
	assert.Empty(t, recipes.RenderShoppingList(nil))
}

func TestServiceErrorKinds(t *testing.T) {
	err := recipes.ValidateTags(nil, 1)

	var serviceErr *recipes.ServiceError
	if assert.ErrorAs(t, err, &serviceErr) {
		assert.Equal(t, "InvalidTagCount", serviceErr.Kind)
		assert.Equal(t, 400, serviceErr.Status)
	}
}
