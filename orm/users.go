package orm

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

func (db *DB) CreateUser(ctx context.Context, user *User) error {
	if user == nil || user.Email == "" || user.Username == "" {
		return &BadInputError{Reason: "user must have email and username"}
	}

	return wrapErrorWithDetails(
		gorm.G[User](db.dbGorm).Create(ctx, user),
		"create user",
		fmt.Sprintf("email=%q, username=%q", user.Email, user.Username),
	)
}

func (db *DB) GetUser(ctx context.Context, id uint) (*User, error) {
	user, err := gorm.G[User](db.dbGorm).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "get user", fmt.Sprintf("id=%d", id))
	}

	return &user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := gorm.G[User](db.dbGorm).Where("LOWER(email) = LOWER(?)", email).First(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(err, "get user by email", fmt.Sprintf("email=%q", email))
	}

	return &user, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := gorm.G[User](db.dbGorm).Where("username = ?", username).First(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(
			err,
			"get user by username",
			fmt.Sprintf("username=%q", username),
		)
	}

	return &user, nil
}

func (db *DB) ListUsers(ctx context.Context, page Page) ([]User, int64, error) {
	total, err := gorm.G[User](db.dbGorm).Count(ctx, "*")
	if err != nil {
		return nil, 0, wrapErrorWithDetails(err, "count users", "")
	}

	users, err := paginate(gorm.G[User](db.dbGorm).Order("id"), page).Find(ctx)
	if err != nil {
		return nil, 0, wrapErrorWithDetails(
			err,
			"list users",
			fmt.Sprintf("limit=%d, offset=%d", page.Limit, page.Offset),
		)
	}

	return users, total, nil
}

func (db *DB) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	rows, err := gorm.G[User](db.dbGorm).Where("id = ?", id).Update(ctx, "password", passwordHash)
	if err != nil {
		return wrapErrorWithDetails(err, "update password", fmt.Sprintf("id=%d", id))
	}
	if rows == 0 {
		return &NotFoundError{Search: fmt.Sprintf("update password (id=%d)", id)}
	}

	return nil
}

// DeleteUser removes the user and every relation row referencing them.
// Authored recipes are kept with a null author.
func (db *DB) DeleteUser(ctx context.Context, id uint) error {
	detail := fmt.Sprintf("id=%d", id)

	err := db.dbGorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := gorm.G[Favourite](tx).Where("user_id = ?", id).Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "delete user favourites", detail)
		}
		if _, err := gorm.G[ShoppingCartEntry](tx).Where("user_id = ?", id).Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "delete user shopping cart", detail)
		}
		if _, err := gorm.G[Follow](tx).
			Where("follower_id = ? OR followed_id = ?", id, id).
			Delete(ctx); err != nil {
			return wrapErrorWithDetails(err, "delete user follows", detail)
		}
		if err := tx.WithContext(ctx).
			Model(&Recipe{}).
			Where("author_id = ?", id).
			Update("author_id", nil).Error; err != nil {
			return wrapErrorWithDetails(err, "detach user recipes", detail)
		}

		rows, err := gorm.G[User](tx).Where("id = ?", id).Delete(ctx)
		if err != nil {
			return wrapErrorWithDetails(err, "delete user", detail)
		}
		if rows == 0 {
			return &NotFoundError{Search: "delete user (" + detail + ")"}
		}

		return nil
	})

	//nolint:wrapcheck // Error already wrapped
	return err
}

func paginate[T any](q gorm.ChainInterface[T], page Page) gorm.ChainInterface[T] {
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}

	return q
}
