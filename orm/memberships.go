package orm

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

func addMembership[T any](ctx context.Context, db *gorm.DB, row *T, operation, details string) error {
	return wrapErrorWithDetails(gorm.G[T](db).Create(ctx, row), operation, details)
}

func removeMembership[T any](
	ctx context.Context,
	db *gorm.DB,
	ownerCol, targetCol string,
	owner, target uint,
	operation string,
) error {
	details := fmt.Sprintf("%s=%d, %s=%d", ownerCol, owner, targetCol, target)

	rows, err := gorm.G[T](db).
		Where(ownerCol+" = ? AND "+targetCol+" = ?", owner, target).
		Delete(ctx)
	if err != nil {
		return wrapErrorWithDetails(err, operation, details)
	}
	if rows == 0 {
		return &NotFoundError{Search: fmt.Sprintf("%s (%s)", operation, details)}
	}

	return nil
}

// membershipsAmong returns the subset of targets related to owner.
func membershipsAmong[T any](
	ctx context.Context,
	db *gorm.DB,
	ownerCol, targetCol string,
	owner uint,
	targets []uint,
) (map[uint]bool, error) {
	found := make(map[uint]bool, len(targets))
	if owner == 0 || len(targets) == 0 {
		return found, nil
	}

	var ids []uint
	err := db.WithContext(ctx).
		Model(new(T)).
		Where(ownerCol+" = ? AND "+targetCol+" IN ?", owner, targets).
		Pluck(targetCol, &ids).Error
	if err != nil {
		return nil, wrapErrorWithDetails(
			err,
			"lookup memberships",
			fmt.Sprintf("%s=%d, %s=%v", ownerCol, owner, targetCol, targets),
		)
	}

	for _, id := range ids {
		found[id] = true
	}

	return found, nil
}

func (db *DB) AddFavourite(ctx context.Context, userID, recipeID uint) error {
	return addMembership(
		ctx,
		db.dbGorm,
		&Favourite{UserID: userID, RecipeID: recipeID},
		"add favourite",
		fmt.Sprintf("user=%d, recipe=%d", userID, recipeID),
	)
}

func (db *DB) RemoveFavourite(ctx context.Context, userID, recipeID uint) error {
	return removeMembership[Favourite](
		ctx, db.dbGorm, "user_id", "recipe_id", userID, recipeID, "remove favourite",
	)
}

func (db *DB) FavouritedAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return membershipsAmong[Favourite](ctx, db.dbGorm, "user_id", "recipe_id", userID, recipeIDs)
}

func (db *DB) AddToCart(ctx context.Context, userID, recipeID uint) error {
	return addMembership(
		ctx,
		db.dbGorm,
		&ShoppingCartEntry{UserID: userID, RecipeID: recipeID},
		"add to shopping cart",
		fmt.Sprintf("user=%d, recipe=%d", userID, recipeID),
	)
}

func (db *DB) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return removeMembership[ShoppingCartEntry](
		ctx, db.dbGorm, "user_id", "recipe_id", userID, recipeID, "remove from shopping cart",
	)
}

func (db *DB) InCartAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return membershipsAmong[ShoppingCartEntry](ctx, db.dbGorm, "user_id", "recipe_id", userID, recipeIDs)
}

func (db *DB) AddFollow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return &BadInputError{Reason: fmt.Sprintf("user %d cannot follow themselves", followerID)}
	}

	return addMembership(
		ctx,
		db.dbGorm,
		&Follow{FollowerID: followerID, FollowedID: followedID},
		"add follow",
		fmt.Sprintf("follower=%d, followed=%d", followerID, followedID),
	)
}

func (db *DB) RemoveFollow(ctx context.Context, followerID, followedID uint) error {
	return removeMembership[Follow](
		ctx, db.dbGorm, "follower_id", "followed_id", followerID, followedID, "remove follow",
	)
}

func (db *DB) FollowingAmong(ctx context.Context, followerID uint, userIDs []uint) (map[uint]bool, error) {
	return membershipsAmong[Follow](ctx, db.dbGorm, "follower_id", "followed_id", followerID, userIDs)
}

// ListFollowing returns the users followed by followerID in the order they
// were followed.
func (db *DB) ListFollowing(ctx context.Context, followerID uint, page Page) ([]User, int64, error) {
	detail := fmt.Sprintf("follower=%d", followerID)
	base := func() *gorm.DB {
		return db.dbGorm.WithContext(ctx).
			Model(&User{}).
			Joins("JOIN follows ON follows.followed_id = users.id").
			Where("follows.follower_id = ?", followerID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, wrapErrorWithDetails(err, "count following", detail)
	}

	q := base().Order("follows.id")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}

	users := []User{}
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, wrapErrorWithDetails(err, "list following", detail)
	}

	return users, total, nil
}
