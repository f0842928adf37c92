package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"recipe-api/auth"
	"recipe-api/database"
	"recipe-api/models"
	"recipe-api/repositories"
	"recipe-api/services"
	"recipe-api/storage"
	"testing"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	container   *restful.Container
	users       services.UserService
	tags        services.AttributeService[models.Tag]
	ingredients services.AttributeService[models.Ingredient]
	recipes     services.RecipeService
	store       *storage.LocalStore
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	userRepo := repositories.NewUserRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)
	store := storage.NewLocalStore(afero.NewMemMapFs(), "/media/")

	app := &testApp{
		users:       services.NewUserService(userRepo),
		tags:        services.NewTagService(tagRepo),
		ingredients: services.NewIngredientService(ingredientRepo),
		store:       store,
	}
	app.recipes = services.NewRecipeService(repositories.NewRecipeRepository(db), tagRepo, ingredientRepo, store)

	app.container = restful.NewContainer()
	register := func(r interface{ RegisterRoutes(*restful.WebService) }) {
		ws := new(restful.WebService)
		r.RegisterRoutes(ws)
		app.container.Add(ws)
	}
	register(NewUserController(app.users, userRepo))
	register(NewTagController(app.tags, userRepo))
	register(NewIngredientController(app.ingredients, userRepo))
	register(NewRecipeController(app.recipes, userRepo, 1<<20))
	register(NewAdminController(app.users, app.tags, app.ingredients, app.recipes, userRepo))
	return app
}

func (a *testApp) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := a.users.CreateUser(context.Background(), &services.CreateUserInput{Email: email, Password: "testpass123", Name: "Test name"})
	require.NoError(t, err)
	return u
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(u)
	require.NoError(t, err)
	return token
}

// do sends body as JSON (when not nil) and authenticates as user (when not nil).
func (a *testApp) do(t *testing.T, method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
	}
	w := httptest.NewRecorder()
	a.container.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testApp) sampleRecipe(t *testing.T, user *models.User, title string, tags []uint, ingredients []uint) *models.Recipe {
	t.Helper()
	minutes, price := 10, 5.0
	r, err := a.recipes.Create(context.Background(), user.ID, &services.RecipeInput{
		Title: title, TimeMinutes: &minutes, Price: &price, Tags: tags, Ingredients: ingredients,
	})
	require.NoError(t, err)
	return r
}

func (a *testApp) sampleTag(t *testing.T, user *models.User, name string) *models.Tag {
	t.Helper()
	tag, err := a.tags.Create(context.Background(), user.ID, &services.AttributeInput{Name: name})
	require.NoError(t, err)
	return tag
}

func (a *testApp) sampleIngredient(t *testing.T, user *models.User, name string) *models.Ingredient {
	t.Helper()
	ing, err := a.ingredients.Create(context.Background(), user.ID, &services.AttributeInput{Name: name})
	require.NoError(t, err)
	return ing
}
