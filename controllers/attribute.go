package controllers

import (
	"net/http"
	"recipe-api/auth"
	"recipe-api/models"
	"recipe-api/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// AttributeResponse is the shape of a tag or an ingredient.
type AttributeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func tagResponse(t *models.Tag) AttributeResponse {
	return AttributeResponse{ID: t.ID, Name: t.Name}
}

func ingredientResponse(i *models.Ingredient) AttributeResponse {
	return AttributeResponse{ID: i.ID, Name: i.Name}
}

// AttributeController serves the list/create/update/delete endpoints shared
// by tags and ingredients.
type AttributeController[T any] struct {
	service    services.AttributeService[T]
	authFilter restful.FilterFunction
	path       string
	param      string
	apiTag     string
	view       func(*T) AttributeResponse
}

func NewTagController(service services.AttributeService[models.Tag], users auth.UserLookup) *AttributeController[models.Tag] {
	return &AttributeController[models.Tag]{
		service:    service,
		authFilter: auth.AuthFilter(users),
		path:       "/api/recipe/tags",
		param:      "tag-id",
		apiTag:     "tags",
		view:       tagResponse,
	}
}

func NewIngredientController(service services.AttributeService[models.Ingredient], users auth.UserLookup) *AttributeController[models.Ingredient] {
	return &AttributeController[models.Ingredient]{
		service:    service,
		authFilter: auth.AuthFilter(users),
		path:       "/api/recipe/ingredients",
		param:      "ingredient-id",
		apiTag:     "ingredients",
		view:       ingredientResponse,
	}
}

func (ctl *AttributeController[T]) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.path).Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Filter(ctl.authFilter)
	tags := []string{ctl.apiTag}
	idParam := ws.PathParameter(ctl.param, "Identifier of the "+ctl.apiTag+" entry").DataType("integer")

	ws.Route(ws.GET("").To(ctl.listHandler).
		Doc("List "+ctl.apiTag+" of the authenticated user").
		Param(ws.QueryParameter("assigned_only", "Only entries assigned to at least one recipe").DataType("boolean")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]AttributeResponse{}).
		Returns(http.StatusOK, "OK", []AttributeResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	ws.Route(ws.POST("").To(ctl.createHandler).
		Doc("Create a new entry in "+ctl.apiTag).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.AttributeInput{}).
		Returns(http.StatusCreated, "Created", AttributeResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}))

	for _, rb := range []*restful.RouteBuilder{ws.PUT("/{" + ctl.param + "}"), ws.PATCH("/{" + ctl.param + "}")} {
		ws.Route(rb.To(ctl.updateHandler).
			Doc("Rename an entry in "+ctl.apiTag).
			Param(idParam).
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Reads(services.AttributeInput{}).
			Returns(http.StatusOK, "OK", AttributeResponse{}).
			Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
			Returns(http.StatusNotFound, "Not found", ErrorResponse{}))
	}

	ws.Route(ws.DELETE("/{"+ctl.param+"}").To(ctl.deleteHandler).
		Doc("Delete an entry in "+ctl.apiTag).
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Deleted", nil).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))
}

func (ctl *AttributeController[T]) render(items []T) []AttributeResponse {
	out := make([]AttributeResponse, len(items))
	for i := range items {
		out[i] = ctl.view(&items[i])
	}
	return out
}

func (ctl *AttributeController[T]) listHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	items, err := ctl.service.List(request.Request.Context(), user.ID, queryFlag(request, "assigned_only"))
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.render(items), restful.MIME_JSON)
}

func (ctl *AttributeController[T]) createHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	input := new(services.AttributeInput)
	if !readAndValidate(request, response, input) {
		return
	}
	item, err := ctl.service.Create(request.Request.Context(), user.ID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, ctl.view(item), restful.MIME_JSON)
}

func (ctl *AttributeController[T]) updateHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, ctl.param)
	if !ok {
		return
	}
	input := new(services.AttributeInput)
	if !readAndValidate(request, response, input) {
		return
	}
	item, err := ctl.service.Update(request.Request.Context(), id, user.ID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.view(item), restful.MIME_JSON)
}

func (ctl *AttributeController[T]) deleteHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, ctl.param)
	if !ok {
		return
	}
	if err := ctl.service.Delete(request.Request.Context(), id, user.ID); err != nil {
		handleServiceError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
