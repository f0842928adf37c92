package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"recipe-api/database"
	"recipe-api/storage"
	"strconv"
	"strings"
	"testing"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return New(db, storage.NewLocalStore(afero.NewMemMapFs(), "/media/"), zap.NewNop(), 1<<20)
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Container.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, app *App, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", restful.MIME_JSON)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	return serve(app, req)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := serve(app, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, w.Body.String())
}

func TestAPIDocs(t *testing.T) {
	app := newTestApp(t)
	w := serve(app, httptest.NewRequest(http.MethodGet, APIDocsPath, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info  struct{ Title string }
		Paths map[string]interface{}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Recipe API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/api/recipe/recipes")
	assert.Contains(t, doc.Paths, "/api/user/token")
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	serve(app, httptest.NewRequest(http.MethodGet, "/api/recipe/recipes", nil))

	w := serve(app, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `api_requests_total{endpoint="/api/recipe/recipes",method="GET",status_code="401"}`)
}

// TestRecipeImageFlow goes from registration to downloading the uploaded
// image through the media handler.
func TestRecipeImageFlow(t *testing.T) {
	app := newTestApp(t)

	w := postJSON(t, app, "/api/user/create", "", map[string]string{"email": "cook@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = postJSON(t, app, "/api/user/token", "", map[string]string{"email": "cook@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct{ Token string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	w = postJSON(t, app, "/api/recipe/recipes", tok.Token, map[string]interface{}{"title": "Bread", "time_minutes": 90, "price": 2.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recipe struct{ ID uint }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))

	img := new(bytes.Buffer)
	require.NoError(t, png.Encode(img, image.NewGray(image.Rect(0, 0, 4, 4))))
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("image", "bread.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recipe/recipes/"+strconv.FormatUint(uint64(recipe.ID), 10)+"/upload-image", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+tok.Token)
	w = serve(app, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var uploaded struct{ Image string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	require.True(t, strings.HasPrefix(uploaded.Image, "/media/uploads/recipe/"), uploaded.Image)

	w = serve(app, httptest.NewRequest(http.MethodGet, uploaded.Image, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, img.Bytes(), w.Body.Bytes())
}

func TestRecoverHandler(t *testing.T) {
	w := httptest.NewRecorder()
	recoverHandler(zap.NewNop())("boom", w)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, w.Body.String())
}
