package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/ai/oracle"
	pgrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/postgres"
)

type embedderStub struct {
	vector    []float32
	err       error
	lastInput string
}

func (s *embedderStub) Embed(_ context.Context, text string) ([]float32, error) {
	s.lastInput = text
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type oracleStub struct {
	rankReply   string
	rankErr     error
	rewrite     string
	rewriteErr  error
	rankCalls   int
	lastJournal string
}

func (s *oracleStub) RankCandidates(_ context.Context, journalText string, _ []oracle.Candidate) (string, error) {
	s.rankCalls++
	s.lastJournal = journalText
	if s.rankErr != nil {
		return "", s.rankErr
	}
	return s.rankReply, nil
}

func (s *oracleStub) RewriteMood(_ context.Context, _ string) (string, error) {
	if s.rewriteErr != nil {
		return "", s.rewriteErr
	}
	return s.rewrite, nil
}

type retrieverStub struct {
	hits         []pgrepo.BottleCandidate
	err          error
	lastAssigned bool
}

func (s *retrieverStub) NearestUnopened(_ context.Context, _ []float32, _ int64, assignedOnly bool, _ int) ([]pgrepo.BottleCandidate, error) {
	s.lastAssigned = assignedOnly
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func twoCandidates() []pgrepo.BottleCandidate {
	return []pgrepo.BottleCandidate{
		{BottleID: 11, Name: "first light", MoodText: "hopeful morning", Distance: 0.1},
		{BottleID: 22, Name: "low tide", MoodText: "quiet sadness", Distance: 0.3},
	}
}

func TestSelectUsesOracleIndex(t *testing.T) {
	emb := &embedderStub{vector: []float32{1, 0}}
	orc := &oracleStub{rankReply: "2"}
	ret := &retrieverStub{hits: twoCandidates()}
	svc := NewService(emb, orc, ret, nil, Config{AssignedOnly: true})

	sel, err := svc.Select(context.Background(), 7, "felt heavy today")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel == nil {
		t.Fatalf("expected a selection")
	}
	if sel.BottleID != 22 {
		t.Fatalf("unexpected bottle: got %d want 22", sel.BottleID)
	}
	if sel.Degraded {
		t.Fatalf("selection should not be degraded for a valid reply")
	}
	if !ret.lastAssigned {
		t.Fatalf("assigned-only flag should reach the retriever")
	}
}

func TestSelectFallsBackOnOutOfRangeReply(t *testing.T) {
	// Oracle says "9" with two candidates at distances 0.1 and 0.3;
	// the distance-0.1 bottle must win.
	emb := &embedderStub{vector: []float32{1, 0}}
	orc := &oracleStub{rankReply: "9"}
	ret := &retrieverStub{hits: twoCandidates()}
	svc := NewService(emb, orc, ret, nil, Config{})

	sel, err := svc.Select(context.Background(), 7, "entry")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.BottleID != 11 {
		t.Fatalf("fallback should pick closest candidate: got %d want 11", sel.BottleID)
	}
	if !sel.Degraded {
		t.Fatalf("fallback selection should be marked degraded")
	}
}

func TestSelectFallsBackOnUnparsableReply(t *testing.T) {
	for _, reply := range []string{"", "the second one", "0", "-1", "2.5"} {
		emb := &embedderStub{vector: []float32{1, 0}}
		orc := &oracleStub{rankReply: reply}
		ret := &retrieverStub{hits: twoCandidates()}
		svc := NewService(emb, orc, ret, nil, Config{})

		sel, err := svc.Select(context.Background(), 7, "entry")
		if err != nil {
			t.Fatalf("select with reply %q: %v", reply, err)
		}
		if sel.BottleID != 11 || !sel.Degraded {
			t.Fatalf("reply %q: got bottle %d degraded=%v, want 11/true", reply, sel.BottleID, sel.Degraded)
		}
	}
}

func TestSelectReturnsNilWhenNoCandidates(t *testing.T) {
	emb := &embedderStub{vector: []float32{1, 0}}
	orc := &oracleStub{rankReply: "1"}
	ret := &retrieverStub{}
	svc := NewService(emb, orc, ret, nil, Config{})

	sel, err := svc.Select(context.Background(), 7, "entry")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel != nil {
		t.Fatalf("expected nil selection, got %+v", sel)
	}
	if orc.rankCalls != 0 {
		t.Fatalf("oracle should not be asked to rank an empty pool")
	}
}

func TestSelectOracleCallFailureIsUpstream(t *testing.T) {
	emb := &embedderStub{vector: []float32{1, 0}}
	orc := &oracleStub{rankErr: errors.New("connection reset")}
	ret := &retrieverStub{hits: twoCandidates()}
	svc := NewService(emb, orc, ret, nil, Config{})

	_, err := svc.Select(context.Background(), 7, "entry")
	var upstream UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError for failed oracle call, got %v", err)
	}
	if upstream.Op != "rank candidates" {
		t.Fatalf("unexpected op: %s", upstream.Op)
	}
}

func TestSelectRewriteStrategyEmbedsMoodPhrase(t *testing.T) {
	emb := &embedderStub{vector: []float32{1, 0}}
	orc := &oracleStub{rankReply: "1", rewrite: "tired but hopeful"}
	ret := &retrieverStub{hits: twoCandidates()}
	svc := NewService(emb, orc, ret, nil, Config{QueryStrategy: StrategyRewrite})

	_, err := svc.Select(context.Background(), 7, "a long rambling entry about the day")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if emb.lastInput != "tired but hopeful" {
		t.Fatalf("rewrite strategy should embed the mood phrase, embedded %q", emb.lastInput)
	}
	if orc.lastJournal != "a long rambling entry about the day" {
		t.Fatalf("ranking must still see the original journal text, saw %q", orc.lastJournal)
	}
}

func TestSelectRewriteFailureIsUpstream(t *testing.T) {
	emb := &embedderStub{vector: []float32{1, 0}}
	orc := &oracleStub{rewriteErr: errors.New("timeout")}
	ret := &retrieverStub{hits: twoCandidates()}
	svc := NewService(emb, orc, ret, nil, Config{QueryStrategy: StrategyRewrite})

	_, err := svc.Select(context.Background(), 7, "entry")
	var upstream UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestSelectRejectsEmptyJournal(t *testing.T) {
	svc := NewService(&embedderStub{}, &oracleStub{}, &retrieverStub{}, nil, Config{})

	if _, err := svc.Select(context.Background(), 7, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
