package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/venky0589/arenaflow/brackets"
	"github.com/venky0589/arenaflow/models"
	"github.com/venky0589/arenaflow/repositories"
	"github.com/venky0589/arenaflow/storage"
	"golang.org/x/sync/errgroup"
)

// BracketNotifier receives bracket events after they are committed.
type BracketNotifier interface {
	NotifyCategory(categoryID int64, eventType string, payload interface{})
}

type BracketService interface {
	GenerateSingleElimination(ctx context.Context, tournamentID, categoryID int64, req *DrawGenerateRequest) (*BracketSummary, error)
	GetBracket(ctx context.Context, categoryID int64) (*BracketSummary, error)
	DeleteDraftBracket(ctx context.Context, categoryID int64) error
	ExportBracket(ctx context.Context, categoryID int64) (*BracketExport, error)
}

type bracketService struct {
	txRunner         repositories.TxRunner
	categoryRepo     repositories.CategoryRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	notifier         BracketNotifier
	uploader         storage.FileUploader
	logger           *slog.Logger
	now              func() time.Time
}

// NewBracketService wires the bracket engine. notifier and uploader are optional.
func NewBracketService(
	txRunner repositories.TxRunner,
	categoryRepo repositories.CategoryRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	notifier BracketNotifier,
	uploader storage.FileUploader,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		txRunner:         txRunner,
		categoryRepo:     categoryRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		notifier:         notifier,
		uploader:         uploader,
		logger:           logger,
		now:              time.Now,
	}
}

type slotKey struct {
	round    int
	position int
}

func (s *bracketService) GenerateSingleElimination(ctx context.Context, tournamentID, categoryID int64, req *DrawGenerateRequest) (*BracketSummary, error) {
	if req == nil {
		req = &DrawGenerateRequest{}
	}

	seedMap, err := brackets.BuildSeedMap(req.Seeds)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(slog.Int64("tournament_id", tournamentID), slog.Int64("category_id", categoryID))
	log.InfoContext(ctx, "generating single elimination bracket",
		slog.Int("seeds", len(seedMap)), slog.Bool("overwrite_if_draft", req.OverwriteIfDraft))

	var summary *BracketSummary
	txErr := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		category, err := s.categoryRepo.GetByIDAndTournament(ctx, exec, categoryID, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return fmt.Errorf("%w: category %d, tournament %d", ErrCategoryNotFound, categoryID, tournamentID)
			}
			return fmt.Errorf("failed to load category %d: %w", categoryID, err)
		}

		generator, ok := brackets.GeneratorFor(category.Format)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, category.Format)
		}

		exists, err := s.matchRepo.ExistsForCategory(ctx, exec, categoryID)
		if err != nil {
			return err
		}
		if exists {
			if !req.OverwriteIfDraft {
				return fmt.Errorf("%w: category %d (set overwrite_if_draft to recreate a draft)", ErrBracketAlreadyExists, categoryID)
			}
			removed, err := s.deleteDraft(ctx, exec, categoryID)
			if err != nil {
				if errors.Is(err, ErrBracketInProgress) {
					return fmt.Errorf("%w: %w", ErrBracketAlreadyExists, err)
				}
				return err
			}
			log.InfoContext(ctx, "existing draft bracket removed", slog.Int("matches", removed))
		}

		registrations, err := s.registrationRepo.ListByCategory(ctx, exec, categoryID)
		if err != nil {
			return err
		}
		if len(registrations) < 2 {
			return fmt.Errorf("%w: category %d has %d registration(s)", ErrInsufficientParticipants, categoryID, len(registrations))
		}

		regIDs := make([]int64, len(registrations))
		for i, reg := range registrations {
			regIDs[i] = reg.ID
		}

		bracket, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Category:        category,
			RegistrationIDs: regIDs,
			Seeds:           seedMap,
		})
		if err != nil {
			return fmt.Errorf("failed to generate bracket structure for category %d: %w", categoryID, err)
		}
		log.InfoContext(ctx, "bracket layout computed",
			slog.Int("participants", bracket.Topology.Participants),
			slog.Int("effective_size", bracket.Topology.Size),
			slog.Int("rounds", bracket.Topology.Rounds),
			slog.Int("byes", bracket.Topology.Byes()))

		if err := s.persistBracket(ctx, exec, categoryID, bracket); err != nil {
			return err
		}
		if err := s.advanceByes(ctx, exec, categoryID, log); err != nil {
			return err
		}

		stored, err := s.matchRepo.ListByCategory(ctx, exec, categoryID)
		if err != nil {
			return err
		}
		if len(stored) != bracket.Topology.TotalMatches() {
			return fmt.Errorf("%w: expected %d matches, found %d", ErrBracketCorrupted, bracket.Topology.TotalMatches(), len(stored))
		}

		summary = &BracketSummary{
			CategoryID:        categoryID,
			TotalParticipants: bracket.Topology.Participants,
			EffectiveSize:     bracket.Topology.Size,
			Rounds:            bracket.Topology.Rounds,
			Matches:           toMatchViews(stored),
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrMatchSlotConflict) {
			txErr = fmt.Errorf("%w: %w", ErrBracketAlreadyExists, txErr)
		}
		log.WarnContext(ctx, "bracket generation failed", slog.Any("error", txErr))
		return nil, txErr
	}

	log.InfoContext(ctx, "bracket generated", slog.Int("matches", len(summary.Matches)))
	s.notify(categoryID, brackets.EventBracketGenerated, summary)
	return summary, nil
}

// persistBracket inserts every node round by round, then links each non-final
// match to its successor once the identities are known.
func (s *bracketService) persistBracket(ctx context.Context, exec repositories.SQLExecutor, categoryID int64, bracket *brackets.Bracket) error {
	persisted := make(map[slotKey]*models.Match, len(bracket.Matches))

	for _, bm := range bracket.Matches {
		m := &models.Match{
			CategoryID:                 categoryID,
			Round:                      bm.Round,
			Position:                   bm.Position,
			Participant1RegistrationID: bm.Participant1ID,
			Participant2RegistrationID: bm.Participant2ID,
			Bye:                        bm.IsBye,
			WinnerAdvancesAs:           bm.WinnerAdvancesAs(),
			Status:                     models.MatchStatusScheduled,
		}
		if err := s.matchRepo.Save(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to create match %s: %w", bm.UID, err)
		}
		persisted[slotKey{bm.Round, bm.Position}] = m
	}

	for _, bm := range bracket.Matches {
		if bm.Next == nil {
			continue
		}
		current := persisted[slotKey{bm.Round, bm.Position}]
		next, ok := persisted[slotKey{bm.Next.Round, bm.Next.Position}]
		if !ok {
			return fmt.Errorf("%w: next match R%d position %d of %s was not persisted", ErrBracketCorrupted, bm.Next.Round, bm.Next.Position, bm.UID)
		}
		nextID := next.ID
		current.NextMatchID = &nextID
		if err := s.matchRepo.Save(ctx, exec, current); err != nil {
			return fmt.Errorf("failed to link match %d to next match %d: %w", current.ID, nextID, err)
		}
	}
	return nil
}

// advanceByes completes every round-1 BYE and writes its sole participant
// into the side of the next match it feeds.
func (s *bracketService) advanceByes(ctx context.Context, exec repositories.SQLExecutor, categoryID int64, log *slog.Logger) error {
	matches, err := s.matchRepo.ListByCategory(ctx, exec, categoryID)
	if err != nil {
		return err
	}

	for _, m := range matches {
		if m.Round != 1 || !m.Bye {
			continue
		}
		winner, ok := m.SoleParticipant()
		if !ok {
			continue
		}

		m.Status = models.MatchStatusCompleted
		if err := s.matchRepo.Save(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to complete bye match %d: %w", m.ID, err)
		}

		if m.NextMatchID == nil || m.WinnerAdvancesAs == nil {
			return fmt.Errorf("%w: bye match %d has no progression pointer", ErrBracketCorrupted, m.ID)
		}
		next, err := s.matchRepo.GetByID(ctx, exec, *m.NextMatchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return fmt.Errorf("%w: next match %d of bye match %d is missing", ErrBracketCorrupted, *m.NextMatchID, m.ID)
			}
			return err
		}

		winnerID := winner
		switch brackets.Side(*m.WinnerAdvancesAs) {
		case brackets.SideOne:
			next.Participant1RegistrationID = &winnerID
		case brackets.SideTwo:
			next.Participant2RegistrationID = &winnerID
		default:
			return fmt.Errorf("%w: match %d advances as side %d", ErrBracketCorrupted, m.ID, *m.WinnerAdvancesAs)
		}
		if err := s.matchRepo.Save(ctx, exec, next); err != nil {
			return fmt.Errorf("failed to advance bye winner into match %d: %w", next.ID, err)
		}

		log.DebugContext(ctx, "bye advanced",
			slog.Int64("match_id", m.ID),
			slog.Int("position", m.Position),
			slog.Int64("registration_id", winner),
			slog.Int64("next_match_id", next.ID))
	}
	return nil
}

func (s *bracketService) GetBracket(ctx context.Context, categoryID int64) (*BracketSummary, error) {
	var matches []*models.Match

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, err := s.categoryRepo.GetByID(gCtx, nil, categoryID); err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return fmt.Errorf("%w: category %d", ErrCategoryNotFound, categoryID)
			}
			return fmt.Errorf("failed to load category %d: %w", categoryID, err)
		}
		return nil
	})

	g.Go(func() error {
		list, err := s.matchRepo.ListByCategory(gCtx, nil, categoryID)
		if err != nil {
			return err
		}
		matches = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summarize(categoryID, matches), nil
}

func (s *bracketService) DeleteDraftBracket(ctx context.Context, categoryID int64) error {
	removed := 0
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.categoryRepo.GetByID(ctx, exec, categoryID); err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return fmt.Errorf("%w: category %d", ErrCategoryNotFound, categoryID)
			}
			return fmt.Errorf("failed to load category %d: %w", categoryID, err)
		}
		var err error
		removed, err = s.deleteDraft(ctx, exec, categoryID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "draft bracket deleted", slog.Int64("category_id", categoryID), slog.Int("matches", removed))
	if removed > 0 {
		s.notify(categoryID, brackets.EventBracketDeleted, map[string]int64{"category_id": categoryID})
	}
	return nil
}

// deleteDraft removes every match of the category, refusing when any of them
// has progressed past the draft state.
func (s *bracketService) deleteDraft(ctx context.Context, exec repositories.SQLExecutor, categoryID int64) (int, error) {
	matches, err := s.matchRepo.ListByCategory(ctx, exec, categoryID)
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if m.HasProgressed() {
			return 0, fmt.Errorf("%w: match %d (round %d, position %d) is %s", ErrBracketInProgress, m.ID, m.Round, m.Position, m.Status)
		}
	}
	for _, m := range matches {
		if err := s.matchRepo.Delete(ctx, exec, m.ID); err != nil {
			return 0, fmt.Errorf("failed to delete match %d: %w", m.ID, err)
		}
	}
	return len(matches), nil
}

func (s *bracketService) ExportBracket(ctx context.Context, categoryID int64) (*BracketExport, error) {
	if s.uploader == nil {
		return nil, ErrExportUnavailable
	}

	summary, err := s.GetBracket(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(summary.Matches) == 0 {
		return nil, fmt.Errorf("%w: category %d", ErrBracketNotFound, categoryID)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket of category %d: %w", categoryID, err)
	}

	exportedAt := s.now().UTC()
	key := storage.BracketExportKey(categoryID, exportedAt)
	result, err := s.uploader.Upload(ctx, key, storage.ContentTypeJSON, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket exported", slog.Int64("category_id", categoryID), slog.String("key", result.Key))
	return &BracketExport{
		CategoryID: categoryID,
		Key:        result.Key,
		URL:        result.Location,
		ETag:       result.ETag,
		ExportedAt: exportedAt,
	}, nil
}

func (s *bracketService) notify(categoryID int64, eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyCategory(categoryID, eventType, payload)
}
