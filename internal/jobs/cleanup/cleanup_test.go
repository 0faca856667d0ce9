package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"
)

type purgerStub struct {
	cutoffs []time.Time
	purged  int64
	err     error
}

func (s *purgerStub) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.purged, s.err
}

func TestRunOnceAppliesRetention(t *testing.T) {
	purger := &purgerStub{purged: 3}
	job := NewJob(purger, nil, Config{Retention: 48 * time.Hour})

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(purger.cutoffs) != 1 {
		t.Fatalf("expected one purge, got %d", len(purger.cutoffs))
	}
	want := fixed.Add(-48 * time.Hour)
	if !purger.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff: got %s want %s", purger.cutoffs[0], want)
	}
}

func TestRunOncePropagatesError(t *testing.T) {
	purgeErr := errors.New("pool closed")
	job := NewJob(&purgerStub{err: purgeErr}, nil, Config{})

	if err := job.RunOnce(context.Background()); !errors.Is(err, purgeErr) {
		t.Fatalf("expected purge error, got %v", err)
	}
}
