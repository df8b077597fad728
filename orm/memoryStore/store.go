package memoryStore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"foodgram/orm"
)

type pair struct {
	owner  uint
	target uint
}

// Store keeps every table in process memory and enforces the same unique and
// reference constraints as the PostgreSQL schema. Used only for testing.
type Store struct {
	mu     sync.RWMutex
	lastID uint

	users       map[uint]orm.User
	ingredients map[uint]orm.Ingredient
	tags        map[uint]orm.Tag
	recipes     map[uint]orm.Recipe
	recipeTags  map[uint][]uint
	recipeLines map[uint][]orm.IngredientAmount

	// values are insertion sequence numbers
	favourites map[pair]uint
	cart       map[pair]uint
	follows    map[pair]uint
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		users:       make(map[uint]orm.User),
		ingredients: make(map[uint]orm.Ingredient),
		tags:        make(map[uint]orm.Tag),
		recipes:     make(map[uint]orm.Recipe),
		recipeTags:  make(map[uint][]uint),
		recipeLines: make(map[uint][]orm.IngredientAmount),
		favourites:  make(map[pair]uint),
		cart:        make(map[pair]uint),
		follows:     make(map[pair]uint),
	}
}

func (s *Store) nextID() uint {
	s.lastID++
	return s.lastID
}

func notFound(operation string, id uint) error {
	return &orm.NotFoundError{Search: fmt.Sprintf("%s (id=%d)", operation, id)}
}

func paginate[T any](rows []T, page orm.Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(rows) {
			return []T{}
		}
		rows = rows[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}

	return rows
}

// Users

func (s *Store) CreateUser(_ context.Context, user *orm.User) error {
	if user == nil || user.Email == "" || user.Username == "" {
		return &orm.BadInputError{Reason: "user must have email and username"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return &orm.ConflictError{
				Conflict: fmt.Sprintf("create user (email=%q, username=%q)", user.Email, user.Username),
			}
		}
	}

	user.ID = s.nextID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = *user

	return nil
}

func (s *Store) GetUser(_ context.Context, id uint) (*orm.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, notFound("get user", id)
	}

	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*orm.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}

	return nil, &orm.NotFoundError{Search: fmt.Sprintf("get user by email (email=%q)", email)}
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*orm.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}

	return nil, &orm.NotFoundError{Search: fmt.Sprintf("get user by username (username=%q)", username)}
}

func (s *Store) ListUsers(_ context.Context, page orm.Page) ([]orm.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]orm.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return paginate(users, page), int64(len(users)), nil
}

func (s *Store) UpdatePassword(_ context.Context, id uint, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return notFound("update password", id)
	}
	user.Password = passwordHash
	s.users[id] = user

	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return notFound("delete user", id)
	}

	for key := range s.favourites {
		if key.owner == id {
			delete(s.favourites, key)
		}
	}
	for key := range s.cart {
		if key.owner == id {
			delete(s.cart, key)
		}
	}
	for key := range s.follows {
		if key.owner == id || key.target == id {
			delete(s.follows, key)
		}
	}
	for recipeID, recipe := range s.recipes {
		if recipe.AuthorID != nil && *recipe.AuthorID == id {
			recipe.AuthorID = nil
			s.recipes[recipeID] = recipe
		}
	}
	delete(s.users, id)

	return nil
}

// Tags and ingredients

func (s *Store) sortedTags(ids []uint) []orm.Tag {
	tags := make([]orm.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := s.tags[id]; ok {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	return tags
}

func (s *Store) ListTags(_ context.Context) ([]orm.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0, len(s.tags))
	for id := range s.tags {
		ids = append(ids, id)
	}

	return s.sortedTags(ids), nil
}

func (s *Store) GetTag(_ context.Context, id uint) (*orm.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, ok := s.tags[id]
	if !ok {
		return nil, notFound("get tag", id)
	}

	return &tag, nil
}

func (s *Store) CountTags(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.tags)), nil
}

func (s *Store) FindTags(_ context.Context, ids []uint) ([]orm.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedTags(ids), nil
}

func (s *Store) TagColorInUse(_ context.Context, color string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tag := range s.tags {
		if strings.EqualFold(tag.Color, color) {
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) CreateTag(_ context.Context, tag *orm.Tag) error {
	if tag == nil || tag.Name == "" || tag.Slug == "" || tag.Color == "" {
		return &orm.BadInputError{Reason: "tag must have name, color and slug"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tags {
		if existing.Name == tag.Name || existing.Slug == tag.Slug ||
			strings.EqualFold(existing.Color, tag.Color) {
			return &orm.ConflictError{
				Conflict: fmt.Sprintf("create tag (name=%q, color=%q, slug=%q)", tag.Name, tag.Color, tag.Slug),
			}
		}
	}

	tag.ID = s.nextID()
	s.tags[tag.ID] = *tag

	return nil
}

func (s *Store) ListIngredients(_ context.Context, prefix string) ([]orm.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.ToLower(prefix)
	ingredients := []orm.Ingredient{}
	for _, ingredient := range s.ingredients {
		if strings.HasPrefix(strings.ToLower(ingredient.Name), prefix) {
			ingredients = append(ingredients, ingredient)
		}
	}
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].Name < ingredients[j].Name })

	return ingredients, nil
}

func (s *Store) GetIngredient(_ context.Context, id uint) (*orm.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ingredient, ok := s.ingredients[id]
	if !ok {
		return nil, notFound("get ingredient", id)
	}

	return &ingredient, nil
}

func (s *Store) FindIngredients(_ context.Context, ids []uint) ([]orm.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ingredients := []orm.Ingredient{}
	for _, id := range ids {
		if ingredient, ok := s.ingredients[id]; ok {
			ingredients = append(ingredients, ingredient)
		}
	}

	return ingredients, nil
}

func (s *Store) UpsertIngredient(_ context.Context, ingredient *orm.Ingredient) error {
	if ingredient == nil || ingredient.Name == "" || ingredient.MeasurementUnit == "" {
		return &orm.BadInputError{Reason: "ingredient must have name and measurement unit"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.ingredients {
		if existing.Name == ingredient.Name {
			existing.MeasurementUnit = ingredient.MeasurementUnit
			s.ingredients[id] = existing
			ingredient.ID = id

			return nil
		}
	}

	ingredient.ID = s.nextID()
	s.ingredients[ingredient.ID] = *ingredient

	return nil
}

// Recipes

func (s *Store) checkRecipeChildren(tagIDs []uint, lines []orm.IngredientAmount) error {
	seenTags := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		if _, ok := s.tags[id]; !ok {
			return &orm.BadInputError{Reason: fmt.Sprintf("link recipe tags: unknown tag %d", id)}
		}
		if seenTags[id] {
			return &orm.ConflictError{Conflict: fmt.Sprintf("link recipe tags (tag=%d)", id)}
		}
		seenTags[id] = true
	}

	seenLines := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if _, ok := s.ingredients[line.IngredientID]; !ok {
			return &orm.BadInputError{
				Reason: fmt.Sprintf("create recipe ingredients: unknown ingredient %d", line.IngredientID),
			}
		}
		if line.Amount < 1 {
			return &orm.BadInputError{Reason: "create recipe ingredients: amount must be at least 1"}
		}
		if seenLines[line.IngredientID] {
			return &orm.ConflictError{
				Conflict: fmt.Sprintf("create recipe ingredients (ingredient=%d)", line.IngredientID),
			}
		}
		seenLines[line.IngredientID] = true
	}

	return nil
}

func (s *Store) storeRecipeChildren(recipeID uint, tagIDs []uint, lines []orm.IngredientAmount) {
	s.recipeTags[recipeID] = slices.Clone(tagIDs)

	rows := make([]orm.IngredientAmount, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, orm.IngredientAmount{
			ID:           s.nextID(),
			RecipeID:     recipeID,
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
		})
	}
	s.recipeLines[recipeID] = rows
}

func (s *Store) CreateRecipe(
	_ context.Context,
	recipe *orm.Recipe,
	tagIDs []uint,
	lines []orm.IngredientAmount,
) error {
	if recipe == nil {
		return &orm.BadInputError{Reason: "nil recipe"}
	}
	if recipe.CookingTime < 1 {
		return &orm.BadInputError{Reason: "create recipe: cooking time must be at least 1"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if recipe.AuthorID != nil {
		if _, ok := s.users[*recipe.AuthorID]; !ok {
			return &orm.BadInputError{Reason: fmt.Sprintf("create recipe: unknown author %d", *recipe.AuthorID)}
		}
	}
	if err := s.checkRecipeChildren(tagIDs, lines); err != nil {
		return err
	}

	recipe.ID = s.nextID()
	recipe.PubDate = time.Now()
	stored := *recipe
	stored.Author, stored.Tags, stored.Ingredients = nil, nil, nil
	s.recipes[recipe.ID] = stored
	s.storeRecipeChildren(recipe.ID, tagIDs, lines)

	return nil
}

func (s *Store) UpdateRecipe(
	_ context.Context,
	recipe *orm.Recipe,
	tagIDs []uint,
	lines []orm.IngredientAmount,
) error {
	if recipe == nil {
		return &orm.BadInputError{Reason: "nil recipe"}
	}
	if recipe.CookingTime < 1 {
		return &orm.BadInputError{Reason: "update recipe: cooking time must be at least 1"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.recipes[recipe.ID]
	if !ok {
		return notFound("update recipe", recipe.ID)
	}
	if err := s.checkRecipeChildren(tagIDs, lines); err != nil {
		return err
	}

	stored.Name = recipe.Name
	stored.Text = recipe.Text
	stored.CookingTime = recipe.CookingTime
	stored.Image = recipe.Image
	s.recipes[recipe.ID] = stored
	s.storeRecipeChildren(recipe.ID, tagIDs, lines)

	return nil
}

// hydrate must be called with the lock held
func (s *Store) hydrate(recipe orm.Recipe) orm.Recipe {
	if recipe.AuthorID != nil {
		if author, ok := s.users[*recipe.AuthorID]; ok {
			recipe.Author = &author
		}
	}
	recipe.Tags = s.sortedTags(s.recipeTags[recipe.ID])

	lines := s.recipeLines[recipe.ID]
	recipe.Ingredients = make([]orm.IngredientAmount, 0, len(lines))
	for _, line := range lines {
		ingredient := s.ingredients[line.IngredientID]
		line.Ingredient = &ingredient
		recipe.Ingredients = append(recipe.Ingredients, line)
	}

	return recipe
}

func (s *Store) GetRecipe(_ context.Context, id uint) (*orm.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.recipes[id]
	if !ok {
		return nil, notFound("get recipe", id)
	}
	recipe = s.hydrate(recipe)

	return &recipe, nil
}

func (s *Store) matches(recipe orm.Recipe, filter orm.RecipeFilter) bool {
	if filter.AuthorID != nil &&
		(recipe.AuthorID == nil || *recipe.AuthorID != *filter.AuthorID) {
		return false
	}
	if len(filter.TagSlugs) > 0 {
		tagged := false
		for _, tagID := range s.recipeTags[recipe.ID] {
			if slices.Contains(filter.TagSlugs, s.tags[tagID].Slug) {
				tagged = true
				break
			}
		}
		if !tagged {
			return false
		}
	}
	if filter.FavouritedBy != 0 {
		if _, ok := s.favourites[pair{filter.FavouritedBy, recipe.ID}]; !ok {
			return false
		}
	}
	if filter.InCartOf != 0 {
		if _, ok := s.cart[pair{filter.InCartOf, recipe.ID}]; !ok {
			return false
		}
	}

	return true
}

func (s *Store) ListRecipes(_ context.Context, filter orm.RecipeFilter) ([]orm.Recipe, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := []orm.Recipe{}
	for _, recipe := range s.recipes {
		if s.matches(recipe, filter) {
			recipes = append(recipes, recipe)
		}
	}
	sort.Slice(recipes, func(i, j int) bool {
		if !recipes[i].PubDate.Equal(recipes[j].PubDate) {
			return recipes[i].PubDate.After(recipes[j].PubDate)
		}
		return recipes[i].ID > recipes[j].ID
	})

	total := int64(len(recipes))
	recipes = paginate(recipes, filter.Page)
	for i := range recipes {
		recipes[i] = s.hydrate(recipes[i])
	}

	return recipes, total, nil
}

func (s *Store) DeleteRecipe(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return notFound("delete recipe", id)
	}

	for key := range s.favourites {
		if key.target == id {
			delete(s.favourites, key)
		}
	}
	for key := range s.cart {
		if key.target == id {
			delete(s.cart, key)
		}
	}
	delete(s.recipeLines, id)
	delete(s.recipeTags, id)
	delete(s.recipes, id)

	return nil
}

func (s *Store) ImageInUse(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, recipe := range s.recipes {
		if recipe.Image == key {
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) ShoppingListTotals(_ context.Context, userID uint) ([]orm.IngredientTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type unitKey struct{ name, unit string }
	sums := map[unitKey]int64{}
	for key := range s.cart {
		if key.owner != userID {
			continue
		}
		for _, line := range s.recipeLines[key.target] {
			ingredient := s.ingredients[line.IngredientID]
			sums[unitKey{ingredient.Name, ingredient.MeasurementUnit}] += int64(line.Amount)
		}
	}

	totals := make([]orm.IngredientTotal, 0, len(sums))
	for key, total := range sums {
		totals = append(totals, orm.IngredientTotal{
			Name:            key.name,
			MeasurementUnit: key.unit,
			Total:           total,
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Name != totals[j].Name {
			return totals[i].Name < totals[j].Name
		}
		return totals[i].MeasurementUnit < totals[j].MeasurementUnit
	})

	return totals, nil
}

// Memberships

func (s *Store) add(rel map[pair]uint, key pair, operation string, targetExists bool) error {
	if _, ok := s.users[key.owner]; !ok || !targetExists {
		return &orm.BadInputError{
			Reason: fmt.Sprintf("%s: unknown reference (%d, %d)", operation, key.owner, key.target),
		}
	}
	if _, ok := rel[key]; ok {
		return &orm.ConflictError{Conflict: fmt.Sprintf("%s (%d, %d)", operation, key.owner, key.target)}
	}
	rel[key] = s.nextID()

	return nil
}

func remove(rel map[pair]uint, key pair, operation string) error {
	if _, ok := rel[key]; !ok {
		return &orm.NotFoundError{Search: fmt.Sprintf("%s (%d, %d)", operation, key.owner, key.target)}
	}
	delete(rel, key)

	return nil
}

func among(rel map[pair]uint, owner uint, targets []uint) map[uint]bool {
	found := make(map[uint]bool, len(targets))
	for _, target := range targets {
		if _, ok := rel[pair{owner, target}]; ok {
			found[target] = true
		}
	}

	return found
}

func (s *Store) AddFavourite(_ context.Context, userID, recipeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.recipes[recipeID]

	return s.add(s.favourites, pair{userID, recipeID}, "add favourite", exists)
}

func (s *Store) RemoveFavourite(_ context.Context, userID, recipeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return remove(s.favourites, pair{userID, recipeID}, "remove favourite")
}

func (s *Store) FavouritedAmong(_ context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return among(s.favourites, userID, recipeIDs), nil
}

func (s *Store) AddToCart(_ context.Context, userID, recipeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.recipes[recipeID]

	return s.add(s.cart, pair{userID, recipeID}, "add to shopping cart", exists)
}

func (s *Store) RemoveFromCart(_ context.Context, userID, recipeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return remove(s.cart, pair{userID, recipeID}, "remove from shopping cart")
}

func (s *Store) InCartAmong(_ context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return among(s.cart, userID, recipeIDs), nil
}

func (s *Store) AddFollow(_ context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return &orm.BadInputError{Reason: fmt.Sprintf("user %d cannot follow themselves", followerID)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.users[followedID]

	return s.add(s.follows, pair{followerID, followedID}, "add follow", exists)
}

func (s *Store) RemoveFollow(_ context.Context, followerID, followedID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return remove(s.follows, pair{followerID, followedID}, "remove follow")
}

func (s *Store) FollowingAmong(_ context.Context, followerID uint, userIDs []uint) (map[uint]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return among(s.follows, followerID, userIDs), nil
}

func (s *Store) ListFollowing(_ context.Context, followerID uint, page orm.Page) ([]orm.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type followed struct {
		seq  uint
		user orm.User
	}
	rows := []followed{}
	for key, seq := range s.follows {
		if key.owner == followerID {
			rows = append(rows, followed{seq: seq, user: s.users[key.target]})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	users := make([]orm.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user)
	}

	return paginate(users, page), int64(len(users)), nil
}

// Counts returns the number of stored ingredient lines, favourites and cart
// entries (useful for testing)
func (s *Store) Counts() (lines, favourites, cartEntries int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rows := range s.recipeLines {
		lines += len(rows)
	}

	return lines, len(s.favourites), len(s.cart)
}
