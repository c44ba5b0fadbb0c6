package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t       *testing.T
	router  http.Handler
	store   *memStore
	objects *fakeStorage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := newMemStore()
	objects := newFakeStorage()

	r := chi.NewRouter()
	r.Route("/api/media", NewHandler(NewService(store, objects)).Routes)

	return &testAPI{t: t, router: r, store: store, objects: objects}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestHandler_Lifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/media/preSignedURL?fileName=sunset.png&fileType=image%2Fpng", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	up := decode[map[string]any](t, rec)
	fileURL, _ := up["fileURL"].(string)
	assert.Equal(t, testPublicBase+"/uploads/sunset.png", fileURL)
	assert.NotEmpty(t, up["uploadURL"])
	assert.EqualValues(t, 600, up["expiresIn"])

	rec = api.do(http.MethodPost, "/api/media", `{"title":"A","description":"B","file_url":"`+fileURL+`","type":"image"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[Media](t, rec)
	require.NotZero(t, created.ID)
	assert.Equal(t, "A", created.Title)
	assert.Zero(t, created.Likes)

	path := "/api/media/" + itoa(created.ID)

	rec = api.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[Media](t, rec)
	assert.Equal(t, "A", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "B", *got.Description)
	assert.Equal(t, fileURL, got.FileURL)
	assert.Equal(t, TypeImage, got.Type)

	rec = api.do(http.MethodPost, path+"/like", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "media liked successfully", decode[map[string]string](t, rec)["message"])
	assert.EqualValues(t, 1, decode[Media](t, api.do(http.MethodGet, path, "")).Likes)

	rec = api.do(http.MethodPost, path+"/unlike", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[Media](t, api.do(http.MethodGet, path, "")).Likes)

	rec = api.do(http.MethodPost, path+"/unlike", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrNoLikes.Error(), errorMessage(t, rec))
	assert.EqualValues(t, 0, decode[Media](t, api.do(http.MethodGet, path, "")).Likes)

	rec = api.do(http.MethodPut, path, `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "media updated successfully", decode[map[string]string](t, rec)["message"])
	assert.Equal(t, "Renamed", decode[Media](t, api.do(http.MethodGet, path, "")).Title)

	rec = api.do(http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "media deleted successfully", decode[map[string]string](t, rec)["message"])
	assert.Equal(t, []string{"uploads/sunset.png"}, api.objects.deleteCalls())

	rec = api.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrNotFound.Error(), errorMessage(t, rec))

	rec = api.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, api.objects.deleteCalls(), 1)
}

func TestHandler_List(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/media", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, title := range []string{"first", "second"} {
		rec = api.do(http.MethodPost, "/api/media", `{"title":"`+title+`","file_url":"http://x/uploads/f.mp4","type":"video"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	items := decode[[]Media](t, api.do(http.MethodGet, "/api/media", ""))
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Title)
	assert.Equal(t, "first", items[1].Title)
	assert.Nil(t, items[0].Description)
}

func TestHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"title":`, "invalid request body"},
		{"unknown field", `{"title":"A","file_url":"http://x/uploads/f.png","type":"image","extra":1}`, "invalid request body"},
		{"missing title", `{"file_url":"http://x/uploads/f.png","type":"image"}`, "title is required"},
		{"missing type", `{"title":"A","file_url":"http://x/uploads/f.png"}`, "type is required"},
		{"bad url", `{"title":"A","file_url":"not a url","type":"image"}`, "file_url must be a valid URL"},
		{"unsupported type", `{"title":"A","file_url":"http://x/uploads/f.png","type":"audio"}`, "invalid media type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			rec := api.do(http.MethodPost, "/api/media", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorMessage(t, rec), tt.wantMsg)

			items, _ := api.store.List(context.Background())
			assert.Empty(t, items)
		})
	}
}

func TestHandler_UpdateValidation(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/media", `{"title":"A","file_url":"http://x/uploads/f.png","type":"image"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/media/" + itoa(decode[Media](t, rec).ID)

	rec = api.do(http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "nothing to update")

	rec = api.do(http.MethodPut, path, `{"type":"video"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, path, `{"url":"http://x/uploads/g.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://x/uploads/g.png", decode[Media](t, api.do(http.MethodGet, path, "")).FileURL)

	rec = api.do(http.MethodPut, "/api/media/999", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The body is validated before the id is looked up.
	rec = api.do(http.MethodPut, "/api/media/999", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "nothing to update")
}

func TestHandler_InvalidIDIsNotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, id := range []string{"abc", "0", "-3", "1.5", "99999999999999999999"} {
		for _, req := range []struct{ method, suffix, body string }{
			{http.MethodGet, "", ""},
			{http.MethodPut, "", `{"title":"x"}`},
			{http.MethodDelete, "", ""},
			{http.MethodPost, "/like", ""},
			{http.MethodPost, "/unlike", ""},
		} {
			rec := api.do(req.method, "/api/media/"+id+req.suffix, req.body)
			assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s%s", req.method, id, req.suffix)
			assert.Equal(t, ErrNotFound.Error(), errorMessage(t, rec))
		}
	}
}

func TestHandler_PresignedURLValidation(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
	}{
		{"no params", url.Values{}},
		{"missing type", url.Values{"fileName": {"f.png"}}},
		{"missing name", url.Values{"fileType": {"image/png"}}},
		{"path in name", url.Values{"fileName": {"../f.png"}, "fileType": {"image/png"}}},
		{"document type", url.Values{"fileName": {"f.pdf"}, "fileType": {"application/pdf"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			rec := api.do(http.MethodGet, "/api/media/preSignedURL?"+tt.query.Encode(), "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestHandler_DeleteForeignURLIsConflict(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/media", `{"title":"A","file_url":"http://example.com","type":"image"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/media/" + itoa(decode[Media](t, rec).ID)

	rec = api.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrDataIntegrity.Error(), errorMessage(t, rec))

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, "").Code)
	assert.Empty(t, api.objects.deleteCalls())
}

func TestHandler_StorageFailureHidesInternals(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/media/preSignedURL?fileName=f.png&fileType=image%2Fpng", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fileURL := decode[map[string]any](t, rec)["fileURL"].(string)

	rec = api.do(http.MethodPost, "/api/media", `{"title":"A","file_url":"`+fileURL+`","type":"image"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/media/" + itoa(decode[Media](t, rec).ID)

	api.objects.deleteErr = errors.New("dial tcp 10.0.0.7:9000: connection refused")
	rec = api.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to delete media", errorMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, "").Code)

	api.objects.presignErr = errors.New("signer exploded")
	rec = api.do(http.MethodGet, "/api/media/preSignedURL?fileName=g.png&fileType=image%2Fpng", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to generate upload url", errorMessage(t, rec))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
