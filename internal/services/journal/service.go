package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/opening"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/selection"
)

const maxEntryLength = 4000

var (
	ErrValidation    = errors.New("validation error")
	ErrEntryNotFound = errors.New("journal entry not found")
)

// Outcome describes what a submission produced. A submission never
// fails just because no bottle surfaced; the entry is kept either way.
type Outcome string

const (
	OutcomeOpened       Outcome = "opened"
	OutcomeNoMatch      Outcome = "no_match"
	OutcomeLimitReached Outcome = "limit_reached"
)

type Selector interface {
	Select(ctx context.Context, userID int64, journalText string) (*selection.Selection, error)
}

type Opener interface {
	Open(ctx context.Context, req opening.OpenRequest) (opening.OpenResult, error)
	RecordJournal(ctx context.Context, userID int64, text string) (model.JournalEntry, error)
}

type Limiter interface {
	AllowSubmission(ctx context.Context, userID int64) error
}

type EntryStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.JournalEntry, error)
	DeleteOwned(ctx context.Context, userID, entryID int64) (bool, error)
}

type SubmitRequest struct {
	UserID int64
	Role   enums.Role
	Text   string
}

type SubmitResult struct {
	Outcome Outcome
	Journal model.JournalEntry
	Bottle  *model.Bottle
	Message string
}

type Dependencies struct {
	Selector Selector
	Opener   Opener
	Limiter  Limiter
	Entries  EntryStore
	Logger   *zap.Logger
}

// Service ties rate limiting, selection and the open transaction into
// the single submit-an-entry flow.
type Service struct {
	selector Selector
	opener   Opener
	limiter  Limiter
	entries  EntryStore
	logger   *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		selector: deps.Selector,
		opener:   deps.Opener,
		limiter:  deps.Limiter,
		entries:  deps.Entries,
		logger:   logger,
	}
}

// Submit runs the daily flow: throttle, pick a bottle for the entry,
// then open it atomically with the entry. When nothing qualifies or
// today's open is already spent, the entry alone is recorded.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.UserID <= 0 || req.Text == "" || len(req.Text) > maxEntryLength {
		return SubmitResult{}, ErrValidation
	}
	if s.selector == nil || s.opener == nil {
		return SubmitResult{}, fmt.Errorf("journal dependencies are not configured")
	}

	if s.limiter != nil {
		if err := s.limiter.AllowSubmission(ctx, req.UserID); err != nil {
			return SubmitResult{}, err
		}
	}

	sel, err := s.selector.Select(ctx, req.UserID, req.Text)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("select bottle: %w", err)
	}
	if sel == nil {
		entry, err := s.opener.RecordJournal(ctx, req.UserID, req.Text)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("record journal: %w", err)
		}
		return SubmitResult{
			Outcome: OutcomeNoMatch,
			Journal: entry,
			Message: "No bottle answered today. Your entry is kept.",
		}, nil
	}

	res, err := s.opener.Open(ctx, opening.OpenRequest{
		UserID:      req.UserID,
		Role:        req.Role,
		JournalText: req.Text,
		BottleID:    sel.BottleID,
	})
	if err != nil {
		if errors.Is(err, opening.ErrDailyLimit) {
			entry, recErr := s.opener.RecordJournal(ctx, req.UserID, req.Text)
			if recErr != nil {
				return SubmitResult{}, fmt.Errorf("record journal: %w", recErr)
			}
			return SubmitResult{
				Outcome: OutcomeLimitReached,
				Journal: entry,
				Message: "Today's bottle is already open. Your entry is kept.",
			}, nil
		}
		return SubmitResult{}, fmt.Errorf("open bottle: %w", err)
	}

	return SubmitResult{
		Outcome: OutcomeOpened,
		Journal: res.Journal,
		Bottle:  &res.Bottle,
	}, nil
}

// OpenTarget opens a specific bottle by id with a journal entry,
// bypassing selection. Curators use it to preview unreleased bottles.
func (s *Service) OpenTarget(ctx context.Context, req SubmitRequest, bottleID int64) (opening.OpenResult, error) {
	if s.opener == nil {
		return opening.OpenResult{}, fmt.Errorf("journal dependencies are not configured")
	}

	return s.opener.Open(ctx, opening.OpenRequest{
		UserID:      req.UserID,
		Role:        req.Role,
		JournalText: req.Text,
		BottleID:    bottleID,
	})
}

func (s *Service) ListEntries(ctx context.Context, userID int64, limit int) ([]model.JournalEntry, error) {
	if s.entries == nil {
		return nil, fmt.Errorf("journal dependencies are not configured")
	}
	if userID <= 0 {
		return nil, ErrValidation
	}

	return s.entries.ListByUser(ctx, userID, limit)
}

func (s *Service) DeleteEntry(ctx context.Context, userID, entryID int64) error {
	if s.entries == nil {
		return fmt.Errorf("journal dependencies are not configured")
	}
	if userID <= 0 || entryID <= 0 {
		return ErrValidation
	}

	deleted, err := s.entries.DeleteOwned(ctx, userID, entryID)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if !deleted {
		return ErrEntryNotFound
	}

	return nil
}
