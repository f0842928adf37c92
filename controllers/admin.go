package controllers

import (
	"net/http"
	"recipe-api/auth"
	"recipe-api/models"
	"recipe-api/services"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// AdminController exposes staff-only screens over every user's data.
type AdminController struct {
	userService       services.UserService
	tagService        services.AttributeService[models.Tag]
	ingredientService services.AttributeService[models.Ingredient]
	recipeService     services.RecipeService
	authFilter        restful.FilterFunction
}

func NewAdminController(
	userService services.UserService,
	tagService services.AttributeService[models.Tag],
	ingredientService services.AttributeService[models.Ingredient],
	recipeService services.RecipeService,
	users auth.UserLookup,
) *AdminController {
	return &AdminController{
		userService:       userService,
		tagService:        tagService,
		ingredientService: ingredientService,
		recipeService:     recipeService,
		authFilter:        auth.AuthFilter(users),
	}
}

type AdminUserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdminOwnedResponse is a tag or ingredient row together with its owner.
type AdminOwnedResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	UserID uint   `json:"user_id"`
}

type AdminRecipeResponse struct {
	RecipeResponse
	UserID uint `json:"user_id"`
}

func mapModelToAdminUserResponse(u *models.User) AdminUserResponse {
	return AdminUserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (ctl *AdminController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/admin").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Filter(ctl.authFilter).Filter(auth.StaffFilter())
	tags := []string{"admin"}
	userIDParam := ws.PathParameter("user-id", "Identifier of the user").DataType("integer")

	ws.Route(ws.GET("/users").To(ctl.listUsersHandler).
		Doc("List users").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AdminUserResponse{}).
		Returns(http.StatusOK, "OK", []AdminUserResponse{}).
		Returns(http.StatusForbidden, "Forbidden", ErrorResponse{}))

	ws.Route(ws.POST("/users").To(ctl.createUserHandler).
		Doc("Add a user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateUserInput{}).
		Returns(http.StatusCreated, "Created", AdminUserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusConflict, "Email already exists", ErrorResponse{}))

	ws.Route(ws.GET("/users/{user-id}").To(ctl.getUserHandler).
		Doc("Retrieve a user").
		Param(userIDParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(AdminUserResponse{}).
		Returns(http.StatusOK, "OK", AdminUserResponse{}).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.PUT("/users/{user-id}").To(ctl.updateUserHandler).
		Doc("Change a user").
		Param(userIDParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.AdminUpdateUserInput{}).
		Returns(http.StatusOK, "OK", AdminUserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.GET("/recipes").To(ctl.listRecipesHandler).
		Doc("List recipes of all users").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AdminRecipeResponse{}).
		Returns(http.StatusOK, "OK", []AdminRecipeResponse{}))

	ws.Route(ws.GET("/tags").To(ctl.listTagsHandler).
		Doc("List tags of all users").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AdminOwnedResponse{}).
		Returns(http.StatusOK, "OK", []AdminOwnedResponse{}))

	ws.Route(ws.GET("/ingredients").To(ctl.listIngredientsHandler).
		Doc("List ingredients of all users").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AdminOwnedResponse{}).
		Returns(http.StatusOK, "OK", []AdminOwnedResponse{}))
}

func (ctl *AdminController) listUsersHandler(request *restful.Request, response *restful.Response) {
	users, err := ctl.userService.ListUsers(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	out := make([]AdminUserResponse, len(users))
	for i := range users {
		out[i] = mapModelToAdminUserResponse(&users[i])
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *AdminController) createUserHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateUserInput)
	if !readAndValidate(request, response, input) {
		return
	}
	user, err := ctl.userService.CreateUser(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, mapModelToAdminUserResponse(user), restful.MIME_JSON)
}

func (ctl *AdminController) getUserHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}
	user, err := ctl.userService.GetUser(request.Request.Context(), id)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToAdminUserResponse(user), restful.MIME_JSON)
}

func (ctl *AdminController) updateUserHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}
	input := new(services.AdminUpdateUserInput)
	if !readAndValidate(request, response, input) {
		return
	}
	user, err := ctl.userService.AdminUpdateUser(request.Request.Context(), id, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToAdminUserResponse(user), restful.MIME_JSON)
}

func (ctl *AdminController) listRecipesHandler(request *restful.Request, response *restful.Response) {
	recipes, err := ctl.recipeService.ListAll(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	out := make([]AdminRecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		out[i] = AdminRecipeResponse{
			RecipeResponse: RecipeResponse{
				ID:          r.ID,
				Title:       r.Title,
				TimeMinutes: r.TimeMinutes,
				Price:       r.Price,
				Link:        r.Link,
				Image:       ctl.recipeService.ImageURL(r),
				Tags:        r.TagIDs(),
				Ingredients: r.IngredientIDs(),
			},
			UserID: r.UserID,
		}
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *AdminController) listTagsHandler(request *restful.Request, response *restful.Response) {
	items, err := ctl.tagService.ListAll(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	out := make([]AdminOwnedResponse, len(items))
	for i, t := range items {
		out[i] = AdminOwnedResponse{ID: t.ID, Name: t.Name, UserID: t.UserID}
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *AdminController) listIngredientsHandler(request *restful.Request, response *restful.Response) {
	items, err := ctl.ingredientService.ListAll(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	out := make([]AdminOwnedResponse, len(items))
	for i, ing := range items {
		out[i] = AdminOwnedResponse{ID: ing.ID, Name: ing.Name, UserID: ing.UserID}
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}
