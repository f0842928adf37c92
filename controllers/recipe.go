package controllers

import (
	"errors"
	"io"
	"net/http"
	"recipe-api/auth"
	"recipe-api/metrics"
	"recipe-api/models"
	"recipe-api/repositories"
	"recipe-api/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

const (
	recipeIDParam        = "recipe-id"
	defaultMaxUploadSize = 10 << 20
)

type RecipeController struct {
	recipeService services.RecipeService
	authFilter    restful.FilterFunction
	maxUpload     int64
}

func NewRecipeController(recipeService services.RecipeService, users auth.UserLookup, maxUploadBytes int64) *RecipeController {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadSize
	}
	return &RecipeController{
		recipeService: recipeService,
		authFilter:    auth.AuthFilter(users),
		maxUpload:     maxUploadBytes,
	}
}

// RecipeResponse is the list representation, relations as ids.
type RecipeResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Link        string  `json:"link"`
	Image       string  `json:"image"`
	Tags        []uint  `json:"tags"`
	Ingredients []uint  `json:"ingredients"`
}

// RecipeDetailResponse expands the relations.
type RecipeDetailResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       float64             `json:"price"`
	Link        string              `json:"link"`
	Image       string              `json:"image"`
	Tags        []AttributeResponse `json:"tags"`
	Ingredients []AttributeResponse `json:"ingredients"`
}

type RecipeImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

func (ctl *RecipeController) listResponse(r *models.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Image:       ctl.recipeService.ImageURL(r),
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
	}
}

func (ctl *RecipeController) detailResponse(r *models.Recipe) RecipeDetailResponse {
	resp := RecipeDetailResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Image:       ctl.recipeService.ImageURL(r),
		Tags:        make([]AttributeResponse, len(r.Tags)),
		Ingredients: make([]AttributeResponse, len(r.Ingredients)),
	}
	for i := range r.Tags {
		resp.Tags[i] = tagResponse(&r.Tags[i])
	}
	for i := range r.Ingredients {
		resp.Ingredients[i] = ingredientResponse(&r.Ingredients[i])
	}
	return resp
}

func (ctl *RecipeController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/recipe/recipes").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Filter(ctl.authFilter)
	tags := []string{"recipes"}
	idParam := ws.PathParameter(recipeIDParam, "Identifier of the recipe").DataType("integer")

	ws.Route(ws.GET("").To(ctl.listHandler).
		Doc("List recipes of the authenticated user, newest first").
		Param(ws.QueryParameter("tags", "Comma separated list of tag ids to filter").DataType("string")).
		Param(ws.QueryParameter("ingredients", "Comma separated list of ingredient ids to filter").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]RecipeResponse{}).
		Returns(http.StatusOK, "OK", []RecipeResponse{}).
		Returns(http.StatusBadRequest, "Invalid filter", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	ws.Route(ws.POST("").To(ctl.createHandler).
		Doc("Create a recipe").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusCreated, "Created", RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}))

	ws.Route(ws.GET("/{"+recipeIDParam+"}").To(ctl.getHandler).
		Doc("Retrieve a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(RecipeDetailResponse{}).
		Returns(http.StatusOK, "OK", RecipeDetailResponse{}).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.PUT("/{"+recipeIDParam+"}").To(ctl.updateHandler).
		Doc("Replace a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusOK, "OK", RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.PATCH("/{"+recipeIDParam+"}").To(ctl.patchHandler).
		Doc("Partially update a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipePatchInput{}).
		Returns(http.StatusOK, "OK", RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.DELETE("/{"+recipeIDParam+"}").To(ctl.deleteHandler).
		Doc("Delete a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Deleted", nil).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.POST("/{"+recipeIDParam+"}/upload-image").To(ctl.uploadImageHandler).
		Consumes("multipart/form-data").
		Doc("Upload an image for a recipe").
		Param(idParam).
		Param(ws.FormParameter("image", "Image file (jpeg, png or gif)").DataType("file")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "OK", RecipeImageResponse{}).
		Returns(http.StatusBadRequest, "Invalid image", ErrorResponse{}).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))
}

func (ctl *RecipeController) listHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}

	var filter repositories.RecipeFilter
	var err error
	if filter.TagIDs, err = services.ParseIDList(request.QueryParameter("tags")); err != nil {
		handleServiceError(response, err)
		return
	}
	if filter.IngredientIDs, err = services.ParseIDList(request.QueryParameter("ingredients")); err != nil {
		handleServiceError(response, err)
		return
	}

	recipes, err := ctl.recipeService.List(request.Request.Context(), user.ID, filter)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	out := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		out[i] = ctl.listResponse(&recipes[i])
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *RecipeController) getHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, recipeIDParam)
	if !ok {
		return
	}
	recipe, err := ctl.recipeService.Get(request.Request.Context(), id, user.ID)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.detailResponse(recipe), restful.MIME_JSON)
}

func (ctl *RecipeController) createHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	input := new(services.RecipeInput)
	if !readAndValidate(request, response, input) {
		return
	}
	recipe, err := ctl.recipeService.Create(request.Request.Context(), user.ID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, ctl.detailResponse(recipe), restful.MIME_JSON)
}

func (ctl *RecipeController) updateHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, recipeIDParam)
	if !ok {
		return
	}
	input := new(services.RecipeInput)
	if !readAndValidate(request, response, input) {
		return
	}
	recipe, err := ctl.recipeService.Update(request.Request.Context(), id, user.ID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.detailResponse(recipe), restful.MIME_JSON)
}

func (ctl *RecipeController) patchHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, recipeIDParam)
	if !ok {
		return
	}
	input := new(services.RecipePatchInput)
	if !readAndValidate(request, response, input) {
		return
	}
	recipe, err := ctl.recipeService.Patch(request.Request.Context(), id, user.ID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.detailResponse(recipe), restful.MIME_JSON)
}

func (ctl *RecipeController) deleteHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, recipeIDParam)
	if !ok {
		return
	}
	if err := ctl.recipeService.Delete(request.Request.Context(), id, user.ID); err != nil {
		handleServiceError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

// uploadImageHandler (Handles POST /api/recipe/recipes/{recipe-id}/upload-image)
func (ctl *RecipeController) uploadImageHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, recipeIDParam)
	if !ok {
		return
	}

	req := request.Request
	req.Body = http.MaxBytesReader(response.ResponseWriter, req.Body, ctl.maxUpload)
	if err := req.ParseMultipartForm(ctl.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(response, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return
		}
		writeError(response, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
		return
	}

	file, header, err := req.FormFile("image")
	if err != nil {
		writeError(response, http.StatusBadRequest, "No file was submitted in the 'image' field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(response, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	recipe, err := ctl.recipeService.UploadImage(req.Context(), id, user.ID, header.Filename, data)
	switch {
	case errors.Is(err, services.ErrInvalidImage):
		metrics.RecordImageUpload(metrics.UploadRejected, len(data))
	case err != nil:
		metrics.RecordImageUpload(metrics.UploadFailed, len(data))
	default:
		metrics.RecordImageUpload(metrics.UploadStored, len(data))
	}
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, RecipeImageResponse{ID: recipe.ID, Image: ctl.recipeService.ImageURL(recipe)}, restful.MIME_JSON)
}
