package recipes_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"strings"
	"testing"
	"time"

	"foodgram/auth"
	"foodgram/media"
	mediaMemory "foodgram/media/memoryStore"
	"foodgram/orm"
	"foodgram/orm/memoryStore"
	"foodgram/recipes"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "s3cret-pass"

type fixture struct {
	ctx    context.Context
	svc    *recipes.Service
	store  *memoryStore.Store
	images *mediaMemory.MemoryStore

	alice recipes.Viewer
	bob   recipes.Viewer
	admin recipes.Viewer

	breakfast orm.Tag
	dinner    orm.Tag
	salt      orm.Ingredient
	egg       orm.Ingredient
	flour     orm.Ingredient
}

func imageDataURL(t *testing.T, c color.Color) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(8, 8, c), imaging.PNG))

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		store:  memoryStore.New(),
		images: mediaMemory.New(),
	}

	issuer, err := auth.NewIssuer("recipes-test-secret-0123456789", time.Hour, auth.NewMemoryRevocations())
	require.NoError(t, err)

	f.svc = recipes.New(f.store, f.images, issuer, recipes.Settings{
		MediaURL: "/media/",
		Images:   media.Normalizer{MaxWidth: 64, MaxHeight: 64, MaxBytes: 1 << 20},
	})

	f.alice = f.register(t, "alice")
	f.bob = f.register(t, "bob")

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	admin := orm.User{Email: "admin@example.com", Username: "admin", Password: hash, IsAdmin: true}
	require.NoError(t, f.store.CreateUser(f.ctx, &admin))
	f.admin = recipes.Viewer{UserID: admin.ID, IsAdmin: true}

	f.breakfast = orm.Tag{Name: "Breakfast", Color: "#ff00aa", Slug: "breakfast"}
	require.NoError(t, f.store.CreateTag(f.ctx, &f.breakfast))
	f.dinner = orm.Tag{Name: "Dinner", Color: "#00AAFF", Slug: "dinner"}
	require.NoError(t, f.store.CreateTag(f.ctx, &f.dinner))

	f.salt = orm.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	require.NoError(t, f.store.UpsertIngredient(f.ctx, &f.salt))
	f.egg = orm.Ingredient{Name: "Egg", MeasurementUnit: "pcs"}
	require.NoError(t, f.store.UpsertIngredient(f.ctx, &f.egg))
	f.flour = orm.Ingredient{Name: "Flour", MeasurementUnit: "g"}
	require.NoError(t, f.store.UpsertIngredient(f.ctx, &f.flour))

	return f
}

func (f *fixture) register(t *testing.T, username string) recipes.Viewer {
	t.Helper()

	user, err := f.svc.Register(f.ctx, recipes.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Cook",
		Password:  password,
	})
	require.NoError(t, err)

	return recipes.Viewer{UserID: user.ID}
}

func (f *fixture) input(t *testing.T, name string, lines ...recipes.IngredientLine) recipes.RecipeInput {
	t.Helper()

	return recipes.RecipeInput{
		Name:        name,
		Text:        "Mix and cook.",
		CookingTime: 15,
		Image:       imageDataURL(t, color.NRGBA{R: 10, G: 200, B: 10, A: 255}),
		Tags:        []uint{f.breakfast.ID},
		Ingredients: lines,
	}
}

func (f *fixture) create(t *testing.T, viewer recipes.Viewer, name string, lines ...recipes.IngredientLine) *recipes.RecipeView {
	t.Helper()

	view, err := f.svc.CreateRecipe(f.ctx, viewer, f.input(t, name, lines...))
	require.NoError(t, err)

	return view
}

func TestCreateRecipe(t *testing.T) {
	t.Run("builds the read view", func(t *testing.T) {
		f := newFixture(t)

		view := f.create(t, f.alice, "Omelette",
			recipes.IngredientLine{ID: f.egg.ID, Amount: 3},
			recipes.IngredientLine{ID: f.salt.ID, Amount: 2},
		)

		assert.Equal(t, "Omelette", view.Name)
		assert.Equal(t, 15, view.CookingTime)
		require.NotNil(t, view.Author)
		assert.Equal(t, "alice", view.Author.Username)
		assert.False(t, view.Author.IsSubscribed)
		assert.False(t, view.IsFavorited)
		assert.False(t, view.IsInShoppingCart)
		assert.True(t, strings.HasPrefix(view.Image, "/media/recipes/images/"))
		assert.Equal(t, []recipes.TagView{{
			ID: f.breakfast.ID, Name: "Breakfast", Color: "#ff00aa", Slug: "breakfast",
		}}, view.Tags)
		assert.Equal(t, []recipes.IngredientAmountView{
			{ID: f.egg.ID, Name: "Egg", MeasurementUnit: "pcs", Amount: 3},
			{ID: f.salt.ID, Name: "Salt", MeasurementUnit: "g", Amount: 2},
		}, view.Ingredients)
		assert.Equal(t, 1, f.images.Count())
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateRecipe(f.ctx, recipes.Anonymous,
			f.input(t, "Soup", recipes.IngredientLine{ID: f.salt.ID, Amount: 1}))
		assert.ErrorIs(t, err, recipes.ErrUnauthenticated)
	})

	rejected := []struct {
		name   string
		mutate func(f *fixture, in *recipes.RecipeInput)
		want   error
	}{
		{
			name: "duplicate ingredient",
			mutate: func(f *fixture, in *recipes.RecipeInput) {
				in.Ingredients = []recipes.IngredientLine{{ID: f.salt.ID, Amount: 2}, {ID: f.salt.ID, Amount: 3}}
			},
			want: recipes.ErrDuplicateIngredient,
		},
		{
			name:   "no ingredients",
			mutate: func(_ *fixture, in *recipes.RecipeInput) { in.Ingredients = nil },
			want:   recipes.ErrEmptyIngredients,
		},
		{
			name: "zero amount",
			mutate: func(f *fixture, in *recipes.RecipeInput) {
				in.Ingredients = []recipes.IngredientLine{{ID: f.salt.ID, Amount: 0}}
			},
			want: recipes.ErrInvalidAmount,
		},
		{
			name: "unknown ingredient",
			mutate: func(_ *fixture, in *recipes.RecipeInput) {
				in.Ingredients = []recipes.IngredientLine{{ID: 9999, Amount: 1}}
			},
			want: recipes.ErrUnknownIngredient,
		},
		{
			name:   "no tags",
			mutate: func(_ *fixture, in *recipes.RecipeInput) { in.Tags = nil },
			want:   recipes.ErrInvalidTagCount,
		},
		{
			name:   "duplicate tag",
			mutate: func(f *fixture, in *recipes.RecipeInput) { in.Tags = []uint{f.dinner.ID, f.dinner.ID} },
			want:   recipes.ErrDuplicateTag,
		},
		{
			name:   "unknown tag",
			mutate: func(f *fixture, in *recipes.RecipeInput) { in.Tags = []uint{f.dinner.ID, 9999} },
			want:   recipes.ErrUnknownTag,
		},
		{
			name:   "zero cooking time",
			mutate: func(_ *fixture, in *recipes.RecipeInput) { in.CookingTime = 0 },
			want:   recipes.ErrInvalidField,
		},
		{
			name:   "missing name",
			mutate: func(_ *fixture, in *recipes.RecipeInput) { in.Name = "" },
			want:   recipes.ErrInvalidField,
		},
		{
			name:   "broken image",
			mutate: func(_ *fixture, in *recipes.RecipeInput) { in.Image = "data:image/png;base64,AAAA" },
			want:   recipes.ErrInvalidImage,
		},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input(t, "Soup", recipes.IngredientLine{ID: f.salt.ID, Amount: 1})
			tt.mutate(f, &in)

			_, err := f.svc.CreateRecipe(f.ctx, f.alice, in)
			assert.ErrorIs(t, err, tt.want)

			_, total, err := f.svc.ListRecipes(f.ctx, recipes.Anonymous, recipes.RecipeQuery{})
			require.NoError(t, err)
			assert.Zero(t, total, "nothing may be persisted")
			assert.Zero(t, f.images.Count())
		})
	}
}

func TestUpdateRecipe(t *testing.T) {
	t.Run("replaces ingredient lines wholesale", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, f.alice, "Porridge", recipes.IngredientLine{ID: f.salt.ID, Amount: 2})

		name := "Eggs"
		updated, err := f.svc.UpdateRecipe(f.ctx, f.alice, created.ID, recipes.RecipeUpdate{
			Name:        &name,
			Tags:        []uint{f.dinner.ID, f.breakfast.ID},
			Ingredients: []recipes.IngredientLine{{ID: f.egg.ID, Amount: 5}},
		})
		require.NoError(t, err)

		assert.Equal(t, "Eggs", updated.Name)
		assert.Equal(t, created.Text, updated.Text)
		assert.Equal(t, created.Image, updated.Image)
		assert.Equal(t, created.PubDate, updated.PubDate)
		assert.Equal(t, []recipes.IngredientAmountView{
			{ID: f.egg.ID, Name: "Egg", MeasurementUnit: "pcs", Amount: 5},
		}, updated.Ingredients)
		assert.Len(t, updated.Tags, 2)

		lines, _, _ := f.store.Counts()
		assert.Equal(t, 1, lines)
	})

	t.Run("failed validation keeps previous state", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, f.alice, "Porridge", recipes.IngredientLine{ID: f.salt.ID, Amount: 2})

		_, err := f.svc.UpdateRecipe(f.ctx, f.alice, created.ID, recipes.RecipeUpdate{
			Tags:        []uint{f.breakfast.ID},
			Ingredients: []recipes.IngredientLine{{ID: f.egg.ID, Amount: 1}, {ID: 9999, Amount: 1}},
		})
		assert.ErrorIs(t, err, recipes.ErrUnknownIngredient)

		current, err := f.svc.GetRecipe(f.ctx, f.alice, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Ingredients, current.Ingredients)
	})

	t.Run("only author or admin", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, f.alice, "Porridge", recipes.IngredientLine{ID: f.salt.ID, Amount: 2})
		update := recipes.RecipeUpdate{
			Tags:        []uint{f.breakfast.ID},
			Ingredients: []recipes.IngredientLine{{ID: f.salt.ID, Amount: 4}},
		}

		_, err := f.svc.UpdateRecipe(f.ctx, f.bob, created.ID, update)
		assert.ErrorIs(t, err, recipes.ErrForbidden)

		_, err = f.svc.UpdateRecipe(f.ctx, f.admin, created.ID, update)
		assert.NoError(t, err)

		_, err = f.svc.UpdateRecipe(f.ctx, f.alice, 9999, update)
		assert.ErrorIs(t, err, recipes.ErrRecipeNotFound)
	})

	t.Run("new image replaces the old blob", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, f.alice, "Porridge", recipes.IngredientLine{ID: f.salt.ID, Amount: 2})
		oldKey := strings.TrimPrefix(created.Image, "/media/")

		image := imageDataURL(t, color.NRGBA{R: 250, A: 255})
		updated, err := f.svc.UpdateRecipe(f.ctx, f.alice, created.ID, recipes.RecipeUpdate{
			Image:       &image,
			Tags:        []uint{f.breakfast.ID},
			Ingredients: []recipes.IngredientLine{{ID: f.salt.ID, Amount: 2}},
		})
		require.NoError(t, err)

		assert.NotEqual(t, created.Image, updated.Image)
		assert.False(t, f.images.Has(oldKey))
		assert.Equal(t, 1, f.images.Count())
	})
}

func TestDeleteRecipe(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, f.alice, "Pancakes", recipes.IngredientLine{ID: f.flour.ID, Amount: 200})
	_, err := f.svc.AddFavourite(f.ctx, f.bob, created.ID)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(f.ctx, f.bob, created.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteRecipe(f.ctx, f.bob, created.ID), recipes.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteRecipe(f.ctx, recipes.Anonymous, created.ID), recipes.ErrUnauthenticated)

	require.NoError(t, f.svc.DeleteRecipe(f.ctx, f.alice, created.ID))

	lines, favourites, cart := f.store.Counts()
	assert.Zero(t, lines)
	assert.Zero(t, favourites)
	assert.Zero(t, cart)
	assert.Zero(t, f.images.Count())

	_, err = f.svc.GetRecipe(f.ctx, f.alice, created.ID)
	assert.ErrorIs(t, err, recipes.ErrRecipeNotFound)
	assert.ErrorIs(t, f.svc.DeleteRecipe(f.ctx, f.alice, created.ID), recipes.ErrRecipeNotFound)
}

func TestSharedImageSurvivesDelete(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, f.alice, "One", recipes.IngredientLine{ID: f.salt.ID, Amount: 1})
	second := f.create(t, f.alice, "Two", recipes.IngredientLine{ID: f.salt.ID, Amount: 1})
	require.Equal(t, first.Image, second.Image)

	require.NoError(t, f.svc.DeleteRecipe(f.ctx, f.alice, first.ID))
	assert.Equal(t, 1, f.images.Count())

	require.NoError(t, f.svc.DeleteRecipe(f.ctx, f.alice, second.ID))
	assert.Zero(t, f.images.Count())
}

func TestFavouriteToggle(t *testing.T) {
	f := newFixture(t)
	recipe := f.create(t, f.alice, "Toast", recipes.IngredientLine{ID: f.flour.ID, Amount: 50})

	short, err := f.svc.AddFavourite(f.ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipes.ShortRecipeView{
		ID: recipe.ID, Name: "Toast", Image: recipe.Image, CookingTime: 15,
	}, *short)

	_, err = f.svc.AddFavourite(f.ctx, f.bob, recipe.ID)
	assert.ErrorIs(t, err, recipes.ErrAlreadyFavourited)

	view, err := f.svc.GetRecipe(f.ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)

	view, err = f.svc.GetRecipe(f.ctx, recipes.Anonymous, recipe.ID)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)

	require.NoError(t, f.svc.RemoveFavourite(f.ctx, f.bob, recipe.ID))
	assert.ErrorIs(t, f.svc.RemoveFavourite(f.ctx, f.bob, recipe.ID), recipes.ErrNotFavourited)

	view, err = f.svc.GetRecipe(f.ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)

	_, err = f.svc.AddFavourite(f.ctx, f.bob, 9999)
	assert.ErrorIs(t, err, recipes.ErrRecipeNotFound)
	_, err = f.svc.AddFavourite(f.ctx, recipes.Anonymous, recipe.ID)
	assert.ErrorIs(t, err, recipes.ErrUnauthenticated)
}

func TestShoppingCart(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, f.alice, "Soup",
		recipes.IngredientLine{ID: f.salt.ID, Amount: 10},
		recipes.IngredientLine{ID: f.egg.ID, Amount: 2},
	)
	second := f.create(t, f.bob, "Bread",
		recipes.IngredientLine{ID: f.salt.ID, Amount: 15},
		recipes.IngredientLine{ID: f.flour.ID, Amount: 500},
	)

	_, err := f.svc.AddToShoppingCart(f.ctx, f.alice, first.ID)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(f.ctx, f.alice, second.ID)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(f.ctx, f.alice, second.ID)
	assert.ErrorIs(t, err, recipes.ErrAlreadyInCart)

	lines, err := f.svc.ShoppingList(f.ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []recipes.ShoppingListLine{
		{Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
		{Name: "Flour", MeasurementUnit: "g", Amount: 500},
		{Name: "Salt", MeasurementUnit: "g", Amount: 25},
	}, lines)
	assert.Equal(t, "Egg (pcs) — 2\nFlour (g) — 500\nSalt (g) — 25\n", recipes.RenderShoppingList(lines))

	empty, err := f.svc.ShoppingList(f.ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, f.svc.RemoveFromShoppingCart(f.ctx, f.alice, first.ID))
	assert.ErrorIs(t, f.svc.RemoveFromShoppingCart(f.ctx, f.alice, first.ID), recipes.ErrNotInCart)

	_, err = f.svc.ShoppingList(f.ctx, recipes.Anonymous)
	assert.ErrorIs(t, err, recipes.ErrUnauthenticated)
}

func TestListRecipes(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, f.alice, "First", recipes.IngredientLine{ID: f.salt.ID, Amount: 1})
	second := f.create(t, f.bob, "Second", recipes.IngredientLine{ID: f.salt.ID, Amount: 1})

	in := f.input(t, "Third", recipes.IngredientLine{ID: f.egg.ID, Amount: 1})
	in.Tags = []uint{f.dinner.ID}
	third, err := f.svc.CreateRecipe(f.ctx, f.alice, in)
	require.NoError(t, err)

	_, err = f.svc.AddFavourite(f.ctx, f.bob, first.ID)
	require.NoError(t, err)

	ids := func(views []recipes.RecipeView) []uint {
		out := make([]uint, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	all, total, err := f.svc.ListRecipes(f.ctx, recipes.Anonymous, recipes.RecipeQuery{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{third.ID, second.ID}, ids(all))

	byAuthor, _, err := f.svc.ListRecipes(f.ctx, recipes.Anonymous, recipes.RecipeQuery{AuthorID: &f.alice.UserID})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, first.ID}, ids(byAuthor))

	byTag, _, err := f.svc.ListRecipes(f.ctx, recipes.Anonymous, recipes.RecipeQuery{TagSlugs: []string{"dinner"}})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID}, ids(byTag))

	favourited, _, err := f.svc.ListRecipes(f.ctx, f.bob, recipes.RecipeQuery{Favorited: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, ids(favourited))
	assert.True(t, favourited[0].IsFavorited)

	anonymous, total, err := f.svc.ListRecipes(f.ctx, recipes.Anonymous, recipes.RecipeQuery{Favorited: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, anonymous, 3)
}

func TestFollow(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"One", "Two", "Three"} {
		f.create(t, f.bob, name, recipes.IngredientLine{ID: f.salt.ID, Amount: 1})
	}

	_, err := f.svc.Follow(f.ctx, f.alice, f.alice.UserID, 0)
	assert.ErrorIs(t, err, recipes.ErrSelfFollowForbidden)

	view, err := f.svc.Follow(f.ctx, f.alice, f.bob.UserID, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", view.Username)
	assert.True(t, view.IsSubscribed)
	assert.EqualValues(t, 3, view.RecipesCount)
	require.Len(t, view.Recipes, 2)
	assert.Equal(t, "Three", view.Recipes[0].Name)

	_, err = f.svc.Follow(f.ctx, f.alice, f.bob.UserID, 0)
	assert.ErrorIs(t, err, recipes.ErrAlreadyFollowing)

	_, err = f.svc.Follow(f.ctx, f.alice, 9999, 0)
	assert.ErrorIs(t, err, recipes.ErrUserNotFound)

	following, total, err := f.svc.ListFollowing(f.ctx, f.alice, 0, orm.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, following, 1)
	assert.Len(t, following[0].Recipes, recipes.DefaultRecipesLimit)

	bob, err := f.svc.GetUser(f.ctx, f.alice, f.bob.UserID)
	require.NoError(t, err)
	assert.True(t, bob.IsSubscribed)

	list, _, err := f.svc.ListRecipes(f.ctx, f.alice, recipes.RecipeQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.True(t, list[0].Author.IsSubscribed)

	require.NoError(t, f.svc.Unfollow(f.ctx, f.alice, f.bob.UserID))
	assert.ErrorIs(t, f.svc.Unfollow(f.ctx, f.alice, f.bob.UserID), recipes.ErrNotFollowing)
}

func TestAccounts(t *testing.T) {
	t.Run("unique email and username", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Register(f.ctx, recipes.RegisterInput{
			Email: "ALICE@example.com", Username: "alice2", FirstName: "A", LastName: "B", Password: password,
		})
		assert.ErrorIs(t, err, recipes.ErrEmailTaken)

		_, err = f.svc.Register(f.ctx, recipes.RegisterInput{
			Email: "new@example.com", Username: "alice", FirstName: "A", LastName: "B", Password: password,
		})
		assert.ErrorIs(t, err, recipes.ErrUsernameTaken)

		_, err = f.svc.Register(f.ctx, recipes.RegisterInput{
			Email: "not-an-email", Username: "carol", FirstName: "C", LastName: "D", Password: password,
		})
		assert.ErrorIs(t, err, recipes.ErrInvalidField)
	})

	t.Run("login logout", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Login(f.ctx, "alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, recipes.ErrInvalidCredentials)
		_, err = f.svc.Login(f.ctx, "nobody@example.com", password)
		assert.ErrorIs(t, err, recipes.ErrInvalidCredentials)

		token, err := f.svc.Login(f.ctx, "alice@example.com", password)
		require.NoError(t, err)

		viewer, err := f.svc.Authenticate(f.ctx, token)
		require.NoError(t, err)
		assert.Equal(t, f.alice, viewer)

		require.NoError(t, f.svc.Logout(f.ctx, token))
		_, err = f.svc.Authenticate(f.ctx, token)
		assert.ErrorIs(t, err, recipes.ErrUnauthenticated)
	})

	t.Run("admin flag comes from the stored user", func(t *testing.T) {
		f := newFixture(t)

		token, err := f.svc.Login(f.ctx, "admin@example.com", password)
		require.NoError(t, err)
		viewer, err := f.svc.Authenticate(f.ctx, token)
		require.NoError(t, err)
		assert.True(t, viewer.IsAdmin)
	})

	t.Run("set password", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.SetPassword(f.ctx, f.alice, recipes.SetPasswordInput{
			CurrentPassword: "wrong-password", NewPassword: "another-pass",
		})
		assert.ErrorIs(t, err, recipes.ErrInvalidCredentials)

		require.NoError(t, f.svc.SetPassword(f.ctx, f.alice, recipes.SetPasswordInput{
			CurrentPassword: password, NewPassword: "another-pass",
		}))

		_, err = f.svc.Login(f.ctx, "alice@example.com", "another-pass")
		assert.NoError(t, err)
	})

	t.Run("delete account keeps recipes", func(t *testing.T) {
		f := newFixture(t)
		recipe := f.create(t, f.alice, "Legacy", recipes.IngredientLine{ID: f.salt.ID, Amount: 1})
		_, err := f.svc.Follow(f.ctx, f.bob, f.alice.UserID, 0)
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.DeleteAccount(f.ctx, f.alice, "wrong-password"), recipes.ErrInvalidCredentials)
		require.NoError(t, f.svc.DeleteAccount(f.ctx, f.alice, password))

		view, err := f.svc.GetRecipe(f.ctx, f.bob, recipe.ID)
		require.NoError(t, err)
		assert.Nil(t, view.Author)

		following, total, err := f.svc.ListFollowing(f.ctx, f.bob, 0, orm.Page{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, following)

		_, err = f.svc.GetUser(f.ctx, f.bob, f.alice.UserID)
		assert.ErrorIs(t, err, recipes.ErrUserNotFound)
	})

	t.Run("list users", func(t *testing.T) {
		f := newFixture(t)

		users, total, err := f.svc.ListUsers(f.ctx, recipes.Anonymous, orm.Page{Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
	})
}

func TestTags(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTag(f.ctx, f.alice, recipes.TagInput{Name: "Lunch", Color: "#123456", Slug: "lunch"})
	assert.ErrorIs(t, err, recipes.ErrForbidden)

	_, err = f.svc.CreateTag(f.ctx, f.admin, recipes.TagInput{Name: "Lunch", Color: "#FF00AA", Slug: "lunch"})
	assert.ErrorIs(t, err, recipes.ErrColorTaken)

	_, err = f.svc.CreateTag(f.ctx, f.admin, recipes.TagInput{Name: "Lunch", Color: "#gg00aa", Slug: "lunch"})
	assert.ErrorIs(t, err, recipes.ErrInvalidColorFormat)

	_, err = f.svc.CreateTag(f.ctx, f.admin, recipes.TagInput{Name: "Breakfast", Color: "#123456", Slug: "other"})
	assert.ErrorIs(t, err, recipes.ErrTagTaken)

	tag, err := f.svc.CreateTag(f.ctx, f.admin, recipes.TagInput{Name: "Lunch", Color: "#123456", Slug: "lunch"})
	require.NoError(t, err)

	got, err := f.svc.GetTag(f.ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, *tag, *got)

	tags, err := f.svc.ListTags(f.ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	_, err = f.svc.GetTag(f.ctx, 9999)
	assert.ErrorIs(t, err, recipes.ErrTagNotFound)
}

// racingColorStore misses the colour on the first lookup, as if another
// request inserted the same colour right after the check.
type racingColorStore struct {
	*memoryStore.Store
	lookups int
}

func (s *racingColorStore) TagColorInUse(ctx context.Context, color string) (bool, error) {
	s.lookups++
	if s.lookups == 1 {
		return false, nil
	}

	return s.Store.TagColorInUse(ctx, color)
}

func TestCreateTagColorRace(t *testing.T) {
	f := newFixture(t)

	issuer, err := auth.NewIssuer("recipes-test-secret-0123456789", time.Hour, auth.NewMemoryRevocations())
	require.NoError(t, err)
	store := &racingColorStore{Store: f.store}
	svc := recipes.New(store, f.images, issuer, recipes.Settings{MediaURL: "/media/"})

	_, err = svc.CreateTag(f.ctx, f.admin, recipes.TagInput{Name: "Lunch", Color: "#FF00AA", Slug: "lunch"})
	require.ErrorIs(t, err, recipes.ErrColorTaken)
	assert.Equal(t, 2, store.lookups)

	_, err = svc.CreateTag(f.ctx, f.admin, recipes.TagInput{Name: "Breakfast", Color: "#654321", Slug: "other"})
	assert.ErrorIs(t, err, recipes.ErrTagTaken)
}

func TestIngredients(t *testing.T) {
	f := newFixture(t)

	found, err := f.svc.ListIngredients(f.ctx, "FL")
	require.NoError(t, err)
	assert.Equal(t, []recipes.IngredientView{{ID: f.flour.ID, Name: "Flour", MeasurementUnit: "g"}}, found)

	all, err := f.svc.ListIngredients(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.GetIngredient(f.ctx, 9999)
	assert.ErrorIs(t, err, recipes.ErrIngredientNotFound)
}
