package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	accesssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/access"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
)

type grantStoreStub struct {
	grant    *model.AccessGrant
	consumed bool
}

func (s *grantStoreStub) Upsert(_ context.Context, mediaID, userID int64, maxViews *int, expiresAt *time.Time) (model.AccessGrant, error) {
	return model.AccessGrant{MediaID: mediaID, UserID: userID, MaxViews: maxViews, ExpiresAt: expiresAt}, nil
}

func (s *grantStoreStub) Get(_ context.Context, _, _ int64) (*model.AccessGrant, error) {
	return s.grant, nil
}

func (s *grantStoreStub) ConsumeView(_ context.Context, _, _ int64, _ time.Time) (int, bool, error) {
	if !s.consumed {
		return 0, false, nil
	}
	return 1, true, nil
}

func (s *grantStoreStub) Delete(_ context.Context, _, _ int64) (bool, error) {
	return false, nil
}

func (s *grantStoreStub) ListByMedia(_ context.Context, _ int64) ([]model.AccessGrant, error) {
	return nil, nil
}

type mediaStoreStub struct {
	object *model.MediaObject
}

func (s *mediaStoreStub) Get(_ context.Context, _ int64) (*model.MediaObject, error) {
	return s.object, nil
}

type presignStub struct{}

func (presignStub) PresignGet(_ context.Context, objectKey string, _ time.Duration) (*url.URL, error) {
	return url.Parse("https://s3.local/bottles/" + objectKey)
}

func performFetch(t *testing.T, h *MediaHandler, mediaID string) *httptest.ResponseRecorder {
	t.Helper()

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("mediaID", mediaID)

	ctx := authsvc.WithIdentity(context.Background(), authsvc.Identity{UserID: 7, Role: enums.RoleRecipient})
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)

	req := httptest.NewRequest(http.MethodGet, "/media/"+mediaID, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Fetch(rec, req)
	return rec
}

func newMediaHandler(grants *grantStoreStub, object *model.MediaObject) *MediaHandler {
	access := accesssvc.NewService(accesssvc.Dependencies{
		Grants:  grants,
		Media:   &mediaStoreStub{object: object},
		Storage: presignStub{},
	}, accesssvc.Config{})
	return NewMediaHandler(nil, access)
}

func TestMediaFetchWithoutGrant(t *testing.T) {
	h := newMediaHandler(&grantStoreStub{}, &model.MediaObject{ID: 9, ObjectKey: "obj-9", ContentType: "image/jpeg"})

	resp := performFetch(t, h, "9")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusForbidden)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "NO_GRANT" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}

func TestMediaFetchReturnsSignedURL(t *testing.T) {
	grants := &grantStoreStub{consumed: true, grant: &model.AccessGrant{MediaID: 9, UserID: 7, Views: 1}}
	h := newMediaHandler(grants, &model.MediaObject{ID: 9, ObjectKey: "obj-9", ContentType: "image/jpeg"})

	resp := performFetch(t, h, "9")
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, body %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		URL   string `json:"url"`
		Views int    `json:"views"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.URL == "" || payload.Views != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestMediaFetchUnknownMedia(t *testing.T) {
	h := newMediaHandler(&grantStoreStub{}, nil)

	resp := performFetch(t, h, "404")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusNotFound)
	}
}

func TestMediaFetchInvalidID(t *testing.T) {
	h := newMediaHandler(&grantStoreStub{}, nil)

	resp := performFetch(t, h, "abc")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusBadRequest)
	}
}
