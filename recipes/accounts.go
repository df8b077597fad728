package recipes

import (
	"context"
	"errors"

	"foodgram/auth"
	"foodgram/orm"

	"github.com/rs/zerolog/log"
)

func (s *Service) Register(ctx context.Context, in RegisterInput) (*UserView, error) {
	if err := s.checkStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, NewError(ErrEmailTaken, "")
	} else if !isNotFound(err) {
		return nil, wrapServiceError(err, "lookup email", storageErrors{})
	}
	if _, err := s.store.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, NewError(ErrUsernameTaken, "")
	} else if !isNotFound(err) {
		return nil, wrapServiceError(err, "lookup username", storageErrors{})
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, newErrorWithCause(ErrInternal, "Internal server error during register", err)
	}

	user := &orm.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, wrapServiceError(err, "register", storageErrors{conflict: ErrEmailTaken})
	}

	log.Info().Uint("user", user.ID).Str("username", user.Username).Msg("user registered")
	view := userView(user, false)

	return &view, nil
}

// Login exchanges an email and password for an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", wrapServiceError(err, "login", storageErrors{notFound: ErrInvalidCredentials})
	}
	if err := auth.CheckPassword(user.Password, password); err != nil {
		return "", NewError(ErrInvalidCredentials, "")
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return "", newErrorWithCause(ErrInternal, "Internal server error during login", err)
	}

	return token, nil
}

// Authenticate resolves a token to the viewer it was issued for. Admin rights
// are read from the stored user, not from the token.
func (s *Service) Authenticate(ctx context.Context, token string) (Viewer, error) {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
			return Anonymous, newErrorWithCause(ErrUnauthenticated, "invalid or revoked token", err)
		}

		return Anonymous, newErrorWithCause(ErrInternal, "Internal server error during authenticate", err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return Anonymous, wrapServiceError(err, "authenticate", storageErrors{notFound: ErrUnauthenticated})
	}

	return Viewer{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
			return newErrorWithCause(ErrUnauthenticated, "invalid or revoked token", err)
		}

		return newErrorWithCause(ErrInternal, "Internal server error during logout", err)
	}

	return nil
}

func (s *Service) Me(ctx context.Context, viewer Viewer) (*UserView, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, viewer.UserID)
	if err != nil {
		return nil, wrapServiceError(err, "me", storageErrors{notFound: ErrUnauthenticated})
	}
	view := userView(user, false)

	return &view, nil
}

func (s *Service) GetUser(ctx context.Context, viewer Viewer, id uint) (*UserView, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, wrapServiceError(err, "get user", storageErrors{notFound: ErrUserNotFound})
	}

	views, err := s.userViews(ctx, viewer, []orm.User{*user})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

func (s *Service) ListUsers(ctx context.Context, viewer Viewer, page orm.Page) ([]UserView, int64, error) {
	users, total, err := s.store.ListUsers(ctx, page)
	if err != nil {
		return nil, 0, wrapServiceError(err, "list users", storageErrors{})
	}

	views, err := s.userViews(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}

	return views, total, nil
}

func (s *Service) userViews(ctx context.Context, viewer Viewer, users []orm.User) ([]UserView, error) {
	following := map[uint]bool{}
	if viewer.Authenticated() && len(users) > 0 {
		ids := make([]uint, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}

		var err error
		if following, err = s.store.FollowingAmong(ctx, viewer.UserID, ids); err != nil {
			return nil, wrapServiceError(err, "lookup follows", storageErrors{})
		}
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i], following[users[i].ID]))
	}

	return views, nil
}

func (s *Service) SetPassword(ctx context.Context, viewer Viewer, in SetPasswordInput) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	if err := s.checkStruct(in); err != nil {
		return err
	}

	user, err := s.checkCurrentPassword(ctx, viewer, in.CurrentPassword)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return newErrorWithCause(ErrInternal, "Internal server error during set password", err)
	}

	return wrapServiceError(
		s.store.UpdatePassword(ctx, user.ID, hash),
		"set password",
		storageErrors{notFound: ErrUnauthenticated},
	)
}

// DeleteAccount removes the viewer's account with their favourites, cart and
// follows. Their recipes remain without an author.
func (s *Service) DeleteAccount(ctx context.Context, viewer Viewer, currentPassword string) error {
	if err := requireUser(viewer); err != nil {
		return err
	}

	user, err := s.checkCurrentPassword(ctx, viewer, currentPassword)
	if err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return wrapServiceError(err, "delete account", storageErrors{notFound: ErrUnauthenticated})
	}
	log.Info().Uint("user", user.ID).Msg("account deleted")

	return nil
}

func (s *Service) checkCurrentPassword(ctx context.Context, viewer Viewer, password string) (*orm.User, error) {
	user, err := s.store.GetUser(ctx, viewer.UserID)
	if err != nil {
		return nil, wrapServiceError(err, "get user", storageErrors{notFound: ErrUnauthenticated})
	}
	if err := auth.CheckPassword(user.Password, password); err != nil {
		return nil, NewError(ErrInvalidCredentials, "current password is incorrect")
	}

	return user, nil
}

func isNotFound(err error) bool {
	var notFoundErr *orm.NotFoundError

	return errors.As(err, &notFoundErr)
}
