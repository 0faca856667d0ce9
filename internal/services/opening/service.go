package opening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/rules"
	pgrepo "github.com/Olof-Tingskull/lovisa-bottles/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrBottleNotFound = errors.New("bottle not found")
	ErrForbidden      = errors.New("bottle is assigned to another recipient")
	ErrAlreadyOpened  = errors.New("bottle already opened")
	ErrDailyLimit     = errors.New("daily open limit reached")
)

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type BottleStore interface {
	Get(ctx context.Context, bottleID int64) (*model.Bottle, error)
}

type JournalStore interface {
	Create(ctx context.Context, tx pgx.Tx, userID int64, body string, createdAt time.Time) (model.JournalEntry, error)
}

type OpenStore interface {
	ExistsForBottleUser(ctx context.Context, tx pgx.Tx, bottleID, userID int64) (bool, error)
	ExistsForUserBetween(ctx context.Context, tx pgx.Tx, userID int64, from, until time.Time) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, bottleID, userID, journalID int64, openedAt time.Time) (model.BottleOpen, error)
}

type Config struct {
	Timezone string
}

type OpenRequest struct {
	UserID      int64
	Role        enums.Role
	JournalText string
	BottleID    int64
}

type OpenResult struct {
	Journal model.JournalEntry
	Open    model.BottleOpen
	Bottle  model.Bottle
}

// Service persists a journal entry together with a bottle open as one
// all-or-nothing transaction, after the ownership, exclusivity and
// daily-limit gates pass in that order.
type Service struct {
	tx       TxRunner
	bottles  BottleStore
	journals JournalStore
	opens    OpenStore
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

type Dependencies struct {
	Tx       TxRunner
	Bottles  BottleStore
	Journals JournalStore
	Opens    OpenStore
	Logger   *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:       deps.Tx,
		bottles:  deps.Bottles,
		journals: deps.Journals,
		opens:    deps.Opens,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Open(ctx context.Context, req OpenRequest) (OpenResult, error) {
	req.JournalText = strings.TrimSpace(req.JournalText)
	if req.UserID <= 0 || req.BottleID <= 0 || req.JournalText == "" {
		return OpenResult{}, ErrValidation
	}
	if s.tx == nil || s.bottles == nil || s.journals == nil || s.opens == nil {
		return OpenResult{}, fmt.Errorf("opening dependencies are not configured")
	}

	policy := rules.OpenPolicyFor(req.Role)

	bottle, err := s.bottles.Get(ctx, req.BottleID)
	if err != nil {
		return OpenResult{}, fmt.Errorf("load bottle: %w", err)
	}
	if bottle == nil {
		return OpenResult{}, ErrBottleNotFound
	}
	if !policy.SkipAssignmentCheck {
		if bottle.RecipientID == nil || *bottle.RecipientID != req.UserID {
			return OpenResult{}, ErrForbidden
		}
	}

	now := s.now().UTC()

	var result OpenResult
	err = s.tx.WithinTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		opened, err := s.opens.ExistsForBottleUser(txCtx, tx, req.BottleID, req.UserID)
		if err != nil {
			return err
		}
		if opened {
			return ErrAlreadyOpened
		}

		if !policy.SkipDailyLimit {
			from, until := rules.DayBounds(now, s.loc)
			openedToday, err := s.opens.ExistsForUserBetween(txCtx, tx, req.UserID, from, until)
			if err != nil {
				return err
			}
			if openedToday {
				return ErrDailyLimit
			}
		}

		entry, err := s.journals.Create(txCtx, tx, req.UserID, req.JournalText, now)
		if err != nil {
			return err
		}

		open, err := s.opens.Create(txCtx, tx, req.BottleID, req.UserID, entry.ID, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrDuplicateOpen) {
				return ErrAlreadyOpened
			}
			return err
		}

		result = OpenResult{
			Journal: entry,
			Open:    open,
			Bottle:  *bottle,
		}
		return nil
	})
	if err != nil {
		return OpenResult{}, err
	}

	s.logger.Info("bottle_opened",
		zap.Int64("user_id", req.UserID),
		zap.Int64("bottle_id", req.BottleID),
		zap.Int64("journal_id", result.Journal.ID),
	)

	return result, nil
}

// RecordJournal persists an entry with no bottle open attached; used
// when selection produced no candidate or the daily limit was already
// spent.
func (s *Service) RecordJournal(ctx context.Context, userID int64, text string) (model.JournalEntry, error) {
	text = strings.TrimSpace(text)
	if userID <= 0 || text == "" {
		return model.JournalEntry{}, ErrValidation
	}
	if s.tx == nil || s.journals == nil {
		return model.JournalEntry{}, fmt.Errorf("opening dependencies are not configured")
	}

	var entry model.JournalEntry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		created, err := s.journals.Create(txCtx, tx, userID, text, s.now().UTC())
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	return entry, nil
}
