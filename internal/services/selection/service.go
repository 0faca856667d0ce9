package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/ai/oracle"
	pgrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/postgres"
)

const (
	StrategyDirect  = "direct"
	StrategyRewrite = "rewrite"

	defaultMaxCandidates = 5
)

var ErrValidation = errors.New("validation error")

// UpstreamError marks a failed call to the embedding provider or the
// re-ranking oracle. A semantically invalid oracle reply is NOT an
// UpstreamError; that case is absorbed by the first-candidate fallback.
type UpstreamError struct {
	Op  string
	Err error
}

func (e UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Oracle interface {
	RankCandidates(ctx context.Context, journalText string, candidates []oracle.Candidate) (string, error)
	RewriteMood(ctx context.Context, journalText string) (string, error)
}

type Retriever interface {
	NearestUnopened(ctx context.Context, query []float32, userID int64, assignedOnly bool, limit int) ([]pgrepo.BottleCandidate, error)
}

type Config struct {
	// QueryStrategy decides how the journal text becomes a query
	// vector: StrategyDirect embeds it as-is, StrategyRewrite asks the
	// oracle for a short mood phrase first.
	QueryStrategy string
	AssignedOnly  bool
	MaxCandidates int
}

type Candidate struct {
	BottleID int64
	Name     string
	MoodText string
	Distance float64
}

// Selection is the outcome of a successful two-stage pick. Degraded is
// set when the oracle reply was unusable and the closest candidate was
// chosen instead.
type Selection struct {
	BottleID   int64
	Degraded   bool
	Candidates []Candidate
}

type Service struct {
	embedder  EmbeddingProvider
	oracle    Oracle
	retriever Retriever
	cfg       Config
	logger    *zap.Logger
}

func NewService(embedder EmbeddingProvider, rankOracle Oracle, retriever Retriever, logger *zap.Logger, cfg Config) *Service {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	if cfg.QueryStrategy != StrategyRewrite {
		cfg.QueryStrategy = StrategyDirect
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		embedder:  embedder,
		oracle:    rankOracle,
		retriever: retriever,
		cfg:       cfg,
		logger:    logger,
	}
}

// Select runs candidate retrieval and oracle re-ranking for a journal
// entry. A nil result means no bottle qualified; that is a normal
// outcome, not an error.
func (s *Service) Select(ctx context.Context, userID int64, journalText string) (*Selection, error) {
	journalText = strings.TrimSpace(journalText)
	if userID <= 0 || journalText == "" {
		return nil, ErrValidation
	}
	if s.embedder == nil || s.oracle == nil || s.retriever == nil {
		return nil, fmt.Errorf("selection dependencies are not configured")
	}

	queryText := journalText
	if s.cfg.QueryStrategy == StrategyRewrite {
		phrase, err := s.oracle.RewriteMood(ctx, journalText)
		if err != nil {
			return nil, UpstreamError{Op: "rewrite mood query", Err: err}
		}
		if strings.TrimSpace(phrase) != "" {
			queryText = phrase
		}
	}

	query, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, UpstreamError{Op: "embed query", Err: err}
	}

	hits, err := s.retriever.NearestUnopened(ctx, query, userID, s.cfg.AssignedOnly, s.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(hits))
	oracleCands := make([]oracle.Candidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, Candidate{
			BottleID: hit.BottleID,
			Name:     hit.Name,
			MoodText: hit.MoodText,
			Distance: hit.Distance,
		})
		oracleCands = append(oracleCands, oracle.Candidate{
			Name:     hit.Name,
			MoodText: hit.MoodText,
		})
	}

	reply, err := s.oracle.RankCandidates(ctx, journalText, oracleCands)
	if err != nil {
		return nil, UpstreamError{Op: "rank candidates", Err: err}
	}

	index, ok := parseIndex(reply, len(candidates))
	degraded := !ok
	if degraded {
		// Policy, not error tolerance: an unusable reply selects the
		// closest candidate.
		index = 1
		s.logger.Warn("degraded_selection",
			zap.Int64("user_id", userID),
			zap.String("oracle_reply", reply),
			zap.Int("candidate_count", len(candidates)),
		)
	}

	return &Selection{
		BottleID:   candidates[index-1].BottleID,
		Degraded:   degraded,
		Candidates: candidates,
	}, nil
}

func parseIndex(reply string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n, true
}
