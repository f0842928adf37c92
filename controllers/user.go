package controllers

import (
	"net/http"
	"recipe-api/auth"
	"recipe-api/models"
	"recipe-api/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

type UserController struct {
	userService services.UserService
	authFilter  restful.FilterFunction
}

func NewUserController(userService services.UserService, users auth.UserLookup) *UserController {
	return &UserController{userService: userService, authFilter: auth.AuthFilter(users)}
}

// UserResponse Defines the response structure of user information
type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func mapModelToUserResponse(user *models.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}
}

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/user").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"user"}

	ws.Route(ws.POST("/create").To(ctl.createUserHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateUserInput{}).
		Returns(http.StatusCreated, "User created", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusConflict, "Email already exists", ErrorResponse{}))

	ws.Route(ws.POST("/token").To(ctl.createTokenHandler).
		Doc("Create an auth token for the user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(TokenRequest{}).
		Returns(http.StatusOK, "Token issued", TokenResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", ErrorResponse{}))

	ws.Route(ws.GET("/me").Filter(ctl.authFilter).To(ctl.getMeHandler).
		Doc("Retrieve the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "OK", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	for _, rb := range []*restful.RouteBuilder{ws.PUT("/me").To(ctl.updateMeHandler), ws.PATCH("/me").To(ctl.updateMeHandler)} {
		ws.Route(rb.Filter(ctl.authFilter).
			Doc("Update the authenticated user").
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Reads(services.UpdateUserInput{}).
			Writes(UserResponse{}).
			Returns(http.StatusOK, "OK", UserResponse{}).
			Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
			Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}).
			Returns(http.StatusConflict, "Email already exists", ErrorResponse{}))
	}
}

// createUserHandler (Handles POST /api/user/create)
func (ctl *UserController) createUserHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateUserInput)
	if !readAndValidate(request, response, input) {
		return
	}

	user, err := ctl.userService.CreateUser(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, mapModelToUserResponse(user), restful.MIME_JSON)
}

// createTokenHandler (Handles POST /api/user/token)
func (ctl *UserController) createTokenHandler(request *restful.Request, response *restful.Response) {
	creds := new(TokenRequest)
	if !readAndValidate(request, response, creds) {
		return
	}

	user, err := ctl.userService.Authenticate(request.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		handleServiceError(response, err)
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		writeError(response, http.StatusInternalServerError, "Could not generate token")
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, TokenResponse{Token: token}, restful.MIME_JSON)
}

// getMeHandler (Handles GET /api/user/me)
func (ctl *UserController) getMeHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToUserResponse(user), restful.MIME_JSON)
}

// updateMeHandler (Handles PUT and PATCH /api/user/me)
func (ctl *UserController) updateMeHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	input := new(services.UpdateUserInput)
	if !readAndValidate(request, response, input) {
		return
	}

	updated, err := ctl.userService.UpdateUser(request.Request.Context(), user.ID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToUserResponse(updated), restful.MIME_JSON)
}
