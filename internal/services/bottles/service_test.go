package bottles

import (
	"context"
	"errors"
	"testing"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

type storeStub struct {
	lastEmbedding []float32
	created       int
}

func (s *storeStub) Create(_ context.Context, bottle model.Bottle, moodEmbedding []float32) (model.Bottle, error) {
	s.created++
	s.lastEmbedding = moodEmbedding
	bottle.ID = int64(s.created)
	return bottle, nil
}

func (s *storeStub) Get(_ context.Context, _ int64) (*model.Bottle, error) {
	return nil, nil
}

func (s *storeStub) ListByCreator(_ context.Context, _ int64) ([]model.Bottle, error) {
	return nil, nil
}

type mediaStub struct {
	known map[int64]bool
}

func (s *mediaStub) Get(_ context.Context, mediaID int64) (*model.MediaObject, error) {
	if !s.known[mediaID] {
		return nil, nil
	}
	return &model.MediaObject{ID: mediaID}, nil
}

type embedderStub struct {
	vector []float32
	calls  int
}

func (s *embedderStub) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return s.vector, nil
}

func strPtr(s string) *string { return &s }

func newTestService(store *storeStub, media *mediaStub, emb *embedderStub) *Service {
	return NewService(Dependencies{Store: store, Media: media, Embedder: emb})
}

func TestCreateEmbedsMoodText(t *testing.T) {
	store := &storeStub{}
	emb := &embedderStub{vector: []float32{0.1, 0.2}}
	svc := newTestService(store, &mediaStub{}, emb)

	bottle, err := svc.Create(context.Background(), CreateRequest{
		CreatorID: 1,
		Name:      "low tide",
		Content:   []model.ContentBlock{{Kind: enums.BlockKindText, Text: "for a quiet day"}},
		MoodText:  strPtr("quiet sadness"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("mood text should be embedded once, got %d calls", emb.calls)
	}
	if len(store.lastEmbedding) != 2 {
		t.Fatalf("embedding should reach the store, got %v", store.lastEmbedding)
	}
	if bottle.MoodText == nil || *bottle.MoodText != "quiet sadness" {
		t.Fatalf("unexpected mood text: %v", bottle.MoodText)
	}
}

func TestCreateWithoutMoodSkipsEmbedding(t *testing.T) {
	store := &storeStub{}
	emb := &embedderStub{vector: []float32{0.1}}
	svc := newTestService(store, &mediaStub{}, emb)

	_, err := svc.Create(context.Background(), CreateRequest{
		CreatorID: 1,
		Name:      "unlisted",
		Content:   []model.ContentBlock{{Kind: enums.BlockKindText, Text: "hi"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if emb.calls != 0 {
		t.Fatalf("no mood text means no embedding call, got %d", emb.calls)
	}
	if store.lastEmbedding != nil {
		t.Fatalf("store should receive no embedding, got %v", store.lastEmbedding)
	}
}

func TestCreateRejectsUnknownMedia(t *testing.T) {
	svc := newTestService(&storeStub{}, &mediaStub{known: map[int64]bool{5: true}}, &embedderStub{})

	_, err := svc.Create(context.Background(), CreateRequest{
		CreatorID: 1,
		Name:      "with media",
		Content: []model.ContentBlock{
			{Kind: enums.BlockKindImage, MediaID: 5},
			{Kind: enums.BlockKindVideo, MediaID: 404},
		},
	})
	if !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}

func TestCreateValidatesBlocks(t *testing.T) {
	svc := newTestService(&storeStub{}, &mediaStub{}, &embedderStub{})

	cases := []CreateRequest{
		{CreatorID: 1, Name: "no content"},
		{CreatorID: 1, Name: "bad kind", Content: []model.ContentBlock{{Kind: "gif"}}},
		{CreatorID: 1, Name: "empty text", Content: []model.ContentBlock{{Kind: enums.BlockKindText, Text: "  "}}},
		{CreatorID: 1, Name: "media no id", Content: []model.ContentBlock{{Kind: enums.BlockKindImage}}},
		{CreatorID: 1, Name: "  ", Content: []model.ContentBlock{{Kind: enums.BlockKindText, Text: "x"}}},
	}
	for i, req := range cases {
		if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}
