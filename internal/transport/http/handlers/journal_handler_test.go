package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	redisrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/redis"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	journalsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/journal"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/opening"
	ratesvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/rate"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/selection"
)

type selectorStub struct {
	sel *selection.Selection
}

func (s *selectorStub) Select(_ context.Context, _ int64, _ string) (*selection.Selection, error) {
	return s.sel, nil
}

type openerStub struct {
	openErr error
}

func (s openerStub) Open(_ context.Context, req opening.OpenRequest) (opening.OpenResult, error) {
	if s.openErr != nil {
		return opening.OpenResult{}, s.openErr
	}
	return opening.OpenResult{
		Journal: model.JournalEntry{ID: 101, UserID: req.UserID, Body: req.JournalText},
		Open:    model.BottleOpen{ID: 1, BottleID: req.BottleID, UserID: req.UserID, JournalID: 101},
		Bottle:  model.Bottle{ID: req.BottleID, Name: "low tide"},
	}, nil
}

func (openerStub) RecordJournal(_ context.Context, userID int64, text string) (model.JournalEntry, error) {
	return model.JournalEntry{ID: 102, UserID: userID, Body: text}, nil
}

func newJournalHandler(t *testing.T, perMin int, opener openerStub) *JournalHandler {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	limiter := ratesvc.NewLimiter(redisrepo.NewRateRepo(redisClient), ratesvc.Config{SubmissionsPerMin: perMin})
	svc := journalsvc.NewService(journalsvc.Dependencies{
		Selector: &selectorStub{sel: &selection.Selection{BottleID: 42}},
		Opener:   opener,
		Limiter:  limiter,
	})

	return NewJournalHandler(svc)
}

func performSubmit(t *testing.T, h *JournalHandler, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]any{"text": "felt heavy today"})
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/journal", bytes.NewReader(body))
	if authed {
		req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
			UserID: 7,
			Role:   enums.RoleRecipient,
		}))
	}
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestJournalSubmitReturnsOpenedBottle(t *testing.T) {
	h := newJournalHandler(t, 10, openerStub{})

	resp := performSubmit(t, h, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusOK)
	}

	var payload struct {
		Outcome string `json:"outcome"`
		Bottle  *struct {
			ID int64 `json:"id"`
		} `json:"bottle"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Outcome != "opened" {
		t.Fatalf("unexpected outcome: %q", payload.Outcome)
	}
	if payload.Bottle == nil || payload.Bottle.ID != 42 {
		t.Fatalf("expected bottle 42 in payload, got %+v", payload.Bottle)
	}
}

func TestJournalSubmitRequiresAuth(t *testing.T) {
	h := newJournalHandler(t, 10, openerStub{})

	resp := performSubmit(t, h, false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusUnauthorized)
	}
}

func TestJournalSubmitRaceOnOpenedBottle(t *testing.T) {
	h := newJournalHandler(t, 10, openerStub{openErr: opening.ErrAlreadyOpened})

	resp := performSubmit(t, h, true)
	if resp.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusConflict)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "ALREADY_OPENED" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}

func TestJournalSubmitRateLimited(t *testing.T) {
	h := newJournalHandler(t, 2, openerStub{})

	for i := 0; i < 2; i++ {
		if resp := performSubmit(t, h, true); resp.Code != http.StatusOK {
			t.Fatalf("submission %d: got %d", i+1, resp.Code)
		}
	}

	resp := performSubmit(t, h, true)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status on third submit: got %d want %d", resp.Code, http.StatusTooManyRequests)
	}

	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "RATE_LIMITED" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
	if payload.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry_after_sec, got %d", payload.RetryAfterSec)
	}
}
