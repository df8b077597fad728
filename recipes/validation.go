package recipes

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	hexColor     = regexp.MustCompile(`^#([a-f0-9]{6}|[A-F0-9]{6})$`)
	usernameRule = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRule     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// IngredientLine is one (ingredient, amount) pair of a recipe command
type IngredientLine struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// ValidateIngredients checks a recipe's ingredient lines in order: the list
// must be non-empty, every amount at least 1 and every id listed once.
func ValidateIngredients(lines []IngredientLine) error {
	if len(lines) == 0 {
		return NewError(ErrEmptyIngredients, "")
	}

	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if line.Amount < 1 {
			return NewError(
				ErrInvalidAmount,
				fmt.Sprintf("amount for ingredient %d must be at least 1", line.ID),
			)
		}
		if seen[line.ID] {
			return NewError(
				ErrDuplicateIngredient,
				fmt.Sprintf("ingredient %d is listed more than once", line.ID),
			)
		}
		seen[line.ID] = true
	}

	return nil
}

// ValidateTags accepts between 1 and total distinct tag ids.
func ValidateTags(ids []uint, total int64) error {
	if len(ids) == 0 || int64(len(ids)) > total {
		return NewError(
			ErrInvalidTagCount,
			fmt.Sprintf("recipe needs between 1 and %d tags, got %d", total, len(ids)),
		)
	}

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return NewError(ErrDuplicateTag, fmt.Sprintf("tag %d is listed more than once", id))
		}
		seen[id] = true
	}

	return nil
}

// ValidateColor rejects colors already used by another tag (taken) before
// checking the hex format.
func ValidateColor(value string, taken bool) error {
	if taken {
		return NewError(ErrColorTaken, fmt.Sprintf("color %s is already used", value))
	}
	if !hexColor.MatchString(value) {
		return NewError(ErrInvalidColorFormat, fmt.Sprintf("%q is not a valid color", value))
	}

	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRule.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRule.MatchString(fl.Field().String())
	})

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return v
}

// checkStruct runs the struct tags of a command and reports the first
// offending field.
func (s *Service) checkStruct(command any) error {
	err := s.validate.Struct(command)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fieldErr := validationErrs[0]

		return newErrorWithCause(
			ErrInvalidField,
			fmt.Sprintf("field %s failed rule %q", fieldErr.Field(), fieldErr.Tag()),
			err,
		)
	}

	return newErrorWithCause(ErrInvalidField, "", err)
}
