package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/photostream-labs/photostream-backend/api/controllers"
	"github.com/photostream-labs/photostream-backend/internal/photos"
	"github.com/photostream-labs/photostream-backend/internal/uploads"
	"github.com/photostream-labs/photostream-backend/pkg/config"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
	"github.com/photostream-labs/photostream-backend/pkg/pagination"
)

type routeUploadsService struct{}

func (routeUploadsService) Presign(ctx context.Context, ownerID string, input uploads.PresignInput) (*uploads.PresignOutput, error) {
	return &uploads.PresignOutput{SignedPUTURL: "https://signed.example"}, nil
}

type routePhotosService struct {
	toggled bool
}

func (s *routePhotosService) Create(ctx context.Context, ownerID string, input photos.CreateInput) (*photos.PhotoDTO, error) {
	return &photos.PhotoDTO{ID: uuid.New(), OwnerID: ownerID}, nil
}

func (s *routePhotosService) ListAll(ctx context.Context, params pagination.Params) (*photos.ListResult, error) {
	return &photos.ListResult{Items: []photos.PhotoDTO{}}, nil
}

func (s *routePhotosService) ListByOwner(ctx context.Context, ownerID string) ([]photos.PhotoDTO, error) {
	return []photos.PhotoDTO{}, nil
}

func (s *routePhotosService) ToggleLike(ctx context.Context, userID string, photoID uuid.UUID) (*photos.ToggleLikeResult, error) {
	s.toggled = true
	return &photos.ToggleLikeResult{Liked: true, LikeCount: 1}, nil
}

func (s *routePhotosService) Delete(ctx context.Context, userID string, photoID uuid.UUID) error {
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *routePhotosService) {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	photosService := &routePhotosService{}
	return NewRouter(cfg, logg, controllers.ReadyDeps{}, routeUploadsService{}, photosService), photosService
}

func TestRouterHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, resp.Code)
		}
	}
}

func TestRouterFeedIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/photos", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("feed returned %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterIdentityHeadersFlowToHandlers(t *testing.T) {
	router, photosService := newTestRouter(t)

	photoID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos/"+photoID.String()+"/like", nil)
	req.Header.Set("X-User-Id", "user-abc123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("toggle returned %d: %s", resp.Code, resp.Body.String())
	}
	if !photosService.toggled {
		t.Fatal("toggle handler not reached")
	}
}

func TestRouterRejectsAnonymousWrites(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", strings.NewReader(`{"mime_type":"image/png","file_name":"a.png","size_bytes":1}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous presign, got %d", resp.Code)
	}
}

func TestRouterMintsIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/identity", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("identity returned %d", resp.Code)
	}
}
