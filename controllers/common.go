package controllers

import (
	"errors"
	"net/http"
	"recipe-api/auth"
	"recipe-api/models"
	"recipe-api/services"
	"reflect"
	"strconv"
	"strings"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// validate is a reusable validator instance reporting json field names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeError(response *restful.Response, status int, message string) {
	_ = response.WriteHeaderAndJson(status, ErrorResponse{Message: message}, restful.MIME_JSON)
}

// readAndValidate decodes the body into input and runs the validate tags.
// It writes the 400 response itself and reports whether to continue.
func readAndValidate(request *restful.Request, response *restful.Response, input interface{}) bool {
	if err := request.ReadEntity(input); err != nil {
		writeError(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(input); err != nil {
		writeValidationError(response, err)
		return false
	}
	return true
}

func writeValidationError(response *restful.Response, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(response, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	_ = response.WriteHeaderAndJson(http.StatusBadRequest, ErrorResponse{Message: "Invalid request", Errors: fields}, restful.MIME_JSON)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "lt":
		return "Ensure this value is less than " + fe.Param() + "."
	default:
		return "Failed on the '" + fe.Tag() + "' rule."
	}
}

// handleServiceError translates service errors to HTTP responses.
func handleServiceError(response *restful.Response, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(response, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		writeError(response, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(response, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidRelation),
		errors.Is(err, services.ErrInvalidImage),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidFilter):
		writeError(response, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("Unhandled service error", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "An internal error occurred")
	}
}

// requestingUser returns the principal set by the AuthFilter, writing a 401 when absent.
func requestingUser(request *restful.Request, response *restful.Response) (*models.User, bool) {
	user, ok := auth.CurrentUser(request)
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized: Cannot identify requesting user")
		return nil, false
	}
	return user, true
}

// pathID parses a numeric path parameter, writing a 404 for anything else.
func pathID(request *restful.Request, response *restful.Response, name string) (uint, bool) {
	id, err := strconv.ParseUint(request.PathParameter(name), 10, 32)
	if err != nil {
		writeError(response, http.StatusNotFound, "Not found")
		return 0, false
	}
	return uint(id), true
}

func queryFlag(request *restful.Request, name string) bool {
	v, err := strconv.ParseBool(request.QueryParameter(name))
	return err == nil && v
}
