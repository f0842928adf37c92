// Package server assembles the HTTP API: repositories, services, controllers
// and the container-wide filters and endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"recipe-api/controllers"
	"recipe-api/database"
	"recipe-api/interceptors"
	"recipe-api/models"
	"recipe-api/repositories"
	"recipe-api/services"
	"recipe-api/storage"
	"runtime/debug"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	APIDocsPath = "/apidocs.json"
	MetricsPath = "/metrics"
	HealthPath  = "/health"
)

// App holds the wired services; the gRPC server and commands reuse them.
type App struct {
	Users       repositories.UserRepository
	UserService services.UserService
	Tags        services.AttributeService[models.Tag]
	Ingredients services.AttributeService[models.Ingredient]
	Recipes     services.RecipeService
	Container   *restful.Container
}

type routeRegistrar interface {
	RegisterRoutes(ws *restful.WebService)
}

// New wires everything on top of db and store.
func New(db *gorm.DB, store storage.ImageStore, logger *zap.Logger, maxUploadBytes int64) *App {
	userRepo := repositories.NewUserRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)

	app := &App{
		Users:       userRepo,
		UserService: services.NewUserService(userRepo),
		Tags:        services.NewTagService(tagRepo),
		Ingredients: services.NewIngredientService(ingredientRepo),
		Recipes:     services.NewRecipeService(repositories.NewRecipeRepository(db), tagRepo, ingredientRepo, store),
		Container:   restful.NewContainer(),
	}

	c := app.Container
	c.Filter(interceptors.RequestLogger(logger))
	c.Filter(interceptors.Metrics())
	c.DoNotRecover(false)
	c.RecoverHandler(recoverHandler(logger))

	for _, ctl := range []routeRegistrar{
		controllers.NewUserController(app.UserService, userRepo),
		controllers.NewTagController(app.Tags, userRepo),
		controllers.NewIngredientController(app.Ingredients, userRepo),
		controllers.NewRecipeController(app.Recipes, userRepo, maxUploadBytes),
		controllers.NewAdminController(app.UserService, app.Tags, app.Ingredients, app.Recipes, userRepo),
	} {
		ws := new(restful.WebService)
		ctl.RegisterRoutes(ws)
		c.Add(ws)
	}

	c.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   c.RegisteredWebServices(),
		APIPath:                       APIDocsPath,
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))
	c.Handle(MetricsPath, promhttp.Handler())
	c.Handle(HealthPath, healthHandler(db))
	if local, ok := store.(*storage.LocalStore); ok {
		c.Handle(local.Prefix(), local.Handler())
	}
	return app
}

func recoverHandler(logger *zap.Logger) restful.RecoverHandleFunction {
	return func(panicReason interface{}, w http.ResponseWriter) {
		logger.Error("Recovered from panic",
			zap.String("reason", fmt.Sprint(panicReason)),
			zap.ByteString("stack", debug.Stack()),
		)
		w.Header().Set("Content-Type", restful.MIME_JSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal Server Error"}`))
	}
}

func healthHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", restful.MIME_JSON)
		if err := database.Ping(ctx, db); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable","database":"unreachable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","database":"ok"}`))
	}
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Recipe API",
			Description: "Manage recipes, tags and ingredients",
			Version:     "1.0.0",
		},
	}
	swo.SecurityDefinitions = spec.SecurityDefinitions{
		"token": spec.APIKeyAuth("Authorization", "header"),
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "user", Description: "Registration, tokens and profile"}},
		{TagProps: spec.TagProps{Name: "recipes", Description: "Recipes of the authenticated user"}},
		{TagProps: spec.TagProps{Name: "tags", Description: "Recipe tags"}},
		{TagProps: spec.TagProps{Name: "ingredients", Description: "Recipe ingredients"}},
		{TagProps: spec.TagProps{Name: "admin", Description: "Staff-only management"}},
	}
}
