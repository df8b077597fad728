package recipes

import (
	"errors"
	"net/http"

	"foodgram/orm"

	"github.com/rs/zerolog/log"
)

// Static errors, one per failure kind. Every error returned by the services
// wraps exactly one of them.
var (
	ErrEmptyIngredients    = errors.New("recipe must contain at least one ingredient")
	ErrInvalidAmount       = errors.New("ingredient amount must be at least 1")
	ErrDuplicateIngredient = errors.New("ingredient is listed more than once")
	ErrInvalidTagCount     = errors.New("tag count out of range")
	ErrDuplicateTag        = errors.New("tag is listed more than once")
	ErrUnknownTag          = errors.New("tag does not exist")
	ErrUnknownIngredient   = errors.New("ingredient does not exist")
	ErrColorTaken          = errors.New("color is already used by another tag")
	ErrInvalidColorFormat  = errors.New("color must be a 6-digit hex value in a single case")
	ErrInvalidField        = errors.New("invalid field")
	ErrInvalidImage        = errors.New("invalid image")

	ErrAlreadyFavourited   = errors.New("recipe is already in favourites")
	ErrNotFavourited       = errors.New("recipe is not in favourites")
	ErrAlreadyInCart       = errors.New("recipe is already in the shopping cart")
	ErrNotInCart           = errors.New("recipe is not in the shopping cart")
	ErrSelfFollowForbidden = errors.New("users cannot follow themselves")
	ErrAlreadyFollowing    = errors.New("already following this user")
	ErrNotFollowing        = errors.New("not following this user")

	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrTagTaken           = errors.New("tag name or slug is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("not allowed")
	ErrInternal           = errors.New("internal error")
)

type kindInfo struct {
	name   string
	status int
}

var kinds = map[error]kindInfo{
	ErrEmptyIngredients:    {"EmptyIngredients", http.StatusBadRequest},
	ErrInvalidAmount:       {"InvalidAmount", http.StatusBadRequest},
	ErrDuplicateIngredient: {"DuplicateIngredient", http.StatusBadRequest},
	ErrInvalidTagCount:     {"InvalidTagCount", http.StatusBadRequest},
	ErrDuplicateTag:        {"DuplicateTag", http.StatusBadRequest},
	ErrUnknownTag:          {"UnknownTag", http.StatusBadRequest},
	ErrUnknownIngredient:   {"UnknownIngredient", http.StatusBadRequest},
	ErrColorTaken:          {"ColorTaken", http.StatusBadRequest},
	ErrInvalidColorFormat:  {"InvalidColorFormat", http.StatusBadRequest},
	ErrInvalidField:        {"InvalidField", http.StatusBadRequest},
	ErrInvalidImage:        {"InvalidImage", http.StatusBadRequest},
	ErrAlreadyFavourited:   {"AlreadyFavourited", http.StatusBadRequest},
	ErrNotFavourited:       {"NotFavourited", http.StatusBadRequest},
	ErrAlreadyInCart:       {"AlreadyInCart", http.StatusBadRequest},
	ErrNotInCart:           {"NotInCart", http.StatusBadRequest},
	ErrSelfFollowForbidden: {"SelfFollowForbidden", http.StatusBadRequest},
	ErrAlreadyFollowing:    {"AlreadyFollowing", http.StatusBadRequest},
	ErrNotFollowing:        {"NotFollowing", http.StatusBadRequest},
	ErrRecipeNotFound:      {"RecipeNotFound", http.StatusNotFound},
	ErrUserNotFound:        {"UserNotFound", http.StatusNotFound},
	ErrTagNotFound:         {"TagNotFound", http.StatusNotFound},
	ErrIngredientNotFound:  {"IngredientNotFound", http.StatusNotFound},
	ErrEmailTaken:          {"EmailTaken", http.StatusBadRequest},
	ErrUsernameTaken:       {"UsernameTaken", http.StatusBadRequest},
	ErrTagTaken:            {"TagTaken", http.StatusBadRequest},
	ErrInvalidCredentials:  {"InvalidCredentials", http.StatusBadRequest},
	ErrUnauthenticated:     {"Unauthenticated", http.StatusUnauthorized},
	ErrForbidden:           {"Forbidden", http.StatusForbidden},
	ErrInternal:            {"Internal", http.StatusInternalServerError},
}

// ServiceError represents public-facing errors from the services
type ServiceError struct {
	Kind    string
	Status  int
	Message string
	// Inner is one of the static errors above
	Inner error
	// Cause is the lower-level error, if any
	Cause error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Inner}
	}

	return []error{e.Inner, e.Cause}
}

// NewError builds the ServiceError of kind. An empty message uses the
// sentinel's text.
func NewError(kind error, message string) *ServiceError {
	info, ok := kinds[kind]
	if !ok {
		info = kinds[ErrInternal]
	}
	if message == "" {
		message = kind.Error()
	}

	return &ServiceError{Kind: info.name, Status: info.status, Message: message, Inner: kind}
}

func newErrorWithCause(kind error, message string, cause error) *ServiceError {
	err := NewError(kind, message)
	err.Cause = cause

	return err
}

// storageErrors picks the failure kind reported for each storage outcome
type storageErrors struct {
	notFound error
	conflict error
	badInput error
}

// wrapServiceError converts storage errors to service errors
func wrapServiceError(err error, operation string, mapping storageErrors) error {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}

	var notFoundErr *orm.NotFoundError
	if errors.As(err, &notFoundErr) && mapping.notFound != nil {
		return newErrorWithCause(mapping.notFound, "", err)
	}

	var conflictErr *orm.ConflictError
	if errors.As(err, &conflictErr) && mapping.conflict != nil {
		return newErrorWithCause(mapping.conflict, "", err)
	}

	var badInputErr *orm.BadInputError
	if errors.As(err, &badInputErr) {
		kind := mapping.badInput
		if kind == nil {
			kind = ErrInvalidField
		}

		return newErrorWithCause(kind, "", err)
	}

	log.Error().Err(err).Str("operation", operation).Msg("storage failure")

	return newErrorWithCause(ErrInternal, "Internal server error during "+operation, err)
}
