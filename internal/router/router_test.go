package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photometa-api/internal/handlers"
	"photometa-api/internal/models"
	"photometa-api/internal/services"
	"photometa-api/internal/testutil"
)

const (
	testKey     = "test-key"
	testBaseURL = "https://example.com/wp-content/uploads"
)

type response struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

func newTestServer(t *testing.T) (http.Handler, *services.MemoryStore) {
	t.Helper()
	root := t.TempDir()
	p := filepath.Join(root, "2024", "05", "canon.jpg")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, testutil.CanonSample(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := services.NewMemoryStore()
	files := services.NewLocalFileSource(root)
	metadata := services.NewMetadataService(services.NewResolver(store, files, testBaseURL, ""), files, nil, 4)
	h := handlers.New(metadata, store, store)

	return Setup(h, Options{APIKeys: []string{testKey}, AllowedOrigins: []string{"*"}}), store
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body response
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetadataRequiresAPIKey(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metadata?image_url=x", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMetadataEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	imageURL := testBaseURL + "/2024/05/canon-300x200.jpg"

	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{"query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/metadata?image_url="+url.QueryEscape(imageURL), nil)
		}},
		{"form", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/metadata", strings.NewReader(url.Values{"image_url": {imageURL}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}},
		{"json", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/metadata", strings.NewReader(`{"image_url":"`+imageURL+`"}`))
			req.Header.Set("Content-Type", "application/json")
			return req
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, tt.req())
			if rec.Code != http.StatusOK || !body.Success {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			if body.Data["camera"] != "Canon EOS R5" {
				t.Errorf("camera = %v", body.Data["camera"])
			}
			if body.Data["shutter"] != "1/250s" {
				t.Errorf("shutter = %v", body.Data["shutter"])
			}
			if _, ok := body.Data["location"]; ok {
				t.Error("location present without geocoding")
			}
			debug, ok := body.Data["debug"].(map[string]any)
			if !ok {
				t.Fatalf("missing debug block: %v", body.Data)
			}
			if debug["file_extension"] != "jpg" || debug["decode_success"] != true {
				t.Errorf("unexpected debug %v", debug)
			}
		})
	}
}

func TestMetadataErrors(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/metadata", nil))
	if rec.Code != http.StatusBadRequest || body.Success {
		t.Errorf("missing image_url: %d %s", rec.Code, rec.Body.String())
	}

	rec, body = do(t, h, httptest.NewRequest(http.MethodGet, "/metadata?image_url="+url.QueryEscape(testBaseURL+"/gone.jpg"), nil))
	if rec.Code != http.StatusNotFound || body.Success {
		t.Fatalf("not found: %d %s", rec.Code, rec.Body.String())
	}
	if body.Data["message"] != "Image file not found" {
		t.Errorf("message = %v", body.Data["message"])
	}
}

func TestSubjectsAndLocations(t *testing.T) {
	h, store := newTestServer(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPost, "/subjects", strings.NewReader(`{"relativePath":"/2024/05/canon.jpg","title":"Harbour"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(t, h, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	id, _ := body.Data["id"].(string)
	subject, err := store.GetSubject(ctx, id)
	if err != nil || subject.RelativePath != "2024/05/canon.jpg" {
		t.Fatalf("stored subject %+v, %v", subject, err)
	}

	rec, _ = do(t, h, httptest.NewRequest(http.MethodPost, "/subjects", strings.NewReader(`{"title":"no path"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path: %d", rec.Code)
	}

	rec, body = do(t, h, httptest.NewRequest(http.MethodGet, "/metadata?image_url="+url.QueryEscape(testBaseURL+"/2024/05/canon.jpg"), nil))
	if rec.Code != http.StatusOK || body.Data["title"] != "Harbour" {
		t.Errorf("title not served: %s", rec.Body.String())
	}

	if err := store.PutLocation(ctx, id, "Oslo, Norway"); err != nil {
		t.Fatal(err)
	}
	if err := store.PutLocation(ctx, "99", "Bergen, Norway"); err != nil {
		t.Fatal(err)
	}

	rec, _ = do(t, h, httptest.NewRequest(http.MethodDelete, "/subjects/"+id+"/location", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear one: %d", rec.Code)
	}
	if _, err := store.GetLocation(ctx, id); err == nil {
		t.Error("location still cached")
	}

	rec = httptest.NewRecorder()
	del := httptest.NewRequest(http.MethodDelete, "/locations", nil)
	del.Header.Set("X-API-Key", testKey)
	h.ServeHTTP(rec, del)
	var cleared map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || cleared["cleared"] != 1 {
		t.Errorf("clear all: %d %v", rec.Code, cleared)
	}
}

func TestListSubjects(t *testing.T) {
	h, store := newTestServer(t)
	if _, err := store.SaveSubject(context.Background(), &models.Subject{RelativePath: "a.jpg"}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subjects", nil)
	req.Header.Set("X-API-Key", testKey)
	h.ServeHTTP(rec, req)

	var body struct {
		Success bool             `json:"success"`
		Data    []models.Subject `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].RelativePath != "a.jpg" {
		t.Errorf("unexpected list %+v", body.Data)
	}
}

// brokenStore fails every read of its backing database.
type brokenStore struct {
	*services.MemoryStore
}

func (brokenStore) ListSubjects(context.Context) ([]*models.Subject, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) ClearAllLocations(context.Context) (int, error) {
	return 0, errors.New("connection refused")
}

func TestBackendFailuresAreInternalErrors(t *testing.T) {
	store := brokenStore{services.NewMemoryStore()}
	files := services.NewLocalFileSource(t.TempDir())
	metadata := services.NewMetadataService(services.NewResolver(store, files, testBaseURL, ""), files, nil, 4)
	h := Setup(handlers.New(metadata, store, store), Options{APIKeys: []string{testKey}, AllowedOrigins: []string{"*"}})

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/subjects"},
		{http.MethodDelete, "/locations"},
	} {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, body := do(t, h, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if body.Success || body.Data["message"] != "Internal server error" {
				t.Errorf("unexpected body %+v", body)
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Errorf("backend error leaked: %s", rec.Body.String())
			}
		})
	}
}
