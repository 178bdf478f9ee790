package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venky0589/arenaflow/brackets"
	"github.com/venky0589/arenaflow/models"
	"github.com/venky0589/arenaflow/repositories"
)

const (
	testTournamentID int64 = 1
	testCategoryID   int64 = 10
)

type bracketFixture struct {
	store    *memoryStore
	notifier *recordingNotifier
	uploader *memoryUploader
	service  BracketService
}

func newBracketFixture(t *testing.T) *bracketFixture {
	t.Helper()
	store := newMemoryStore()
	store.addCategory(testCategoryID, testTournamentID, models.FormatSingleElimination)

	notifier := &recordingNotifier{}
	uploader := newMemoryUploader()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewBracketService(
		store,
		memoryCategoryRepo{store},
		memoryRegistrationRepo{store},
		memoryMatchRepo{store},
		notifier,
		uploader,
		logger,
	)
	return &bracketFixture{store: store, notifier: notifier, uploader: uploader, service: svc}
}

func registrationRange(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(101 + i)
	}
	return ids
}

func matchAt(t *testing.T, matches []MatchView, round, position int) MatchView {
	t.Helper()
	for _, m := range matches {
		if m.Round == round && m.Position == position {
			return m
		}
	}
	t.Fatalf("match R%d position %d not found", round, position)
	return MatchView{}
}

func idOf(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func sideOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func TestGenerate_TwoParticipants(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, 101, 102)

	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalParticipants)
	assert.Equal(t, 2, summary.EffectiveSize)
	assert.Equal(t, 1, summary.Rounds)
	require.Len(t, summary.Matches, 1)

	final := summary.Matches[0]
	assert.Equal(t, 1, final.Round)
	assert.Equal(t, 0, final.Position)
	assert.Equal(t, int64(101), idOf(final.Participant1RegistrationID))
	assert.Equal(t, int64(102), idOf(final.Participant2RegistrationID))
	assert.False(t, final.Bye)
	assert.Equal(t, models.MatchStatusScheduled, final.Status)
	assert.Nil(t, final.NextMatchID)
	assert.Nil(t, final.WinnerAdvancesAs)
}

func TestGenerate_ThreeParticipantsAdvancesBye(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, 101, 102, 103)

	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, &DrawGenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.EffectiveSize)
	assert.Equal(t, 2, summary.Rounds)
	require.Len(t, summary.Matches, 3)

	final := matchAt(t, summary.Matches, 2, 0)

	bye := matchAt(t, summary.Matches, 1, 0)
	assert.Equal(t, int64(101), idOf(bye.Participant1RegistrationID))
	assert.Nil(t, bye.Participant2RegistrationID)
	assert.True(t, bye.Bye)
	assert.Equal(t, models.MatchStatusCompleted, bye.Status)
	assert.Equal(t, final.ID, idOf(bye.NextMatchID))
	assert.Equal(t, 1, sideOf(bye.WinnerAdvancesAs))

	played := matchAt(t, summary.Matches, 1, 1)
	assert.Equal(t, int64(102), idOf(played.Participant1RegistrationID))
	assert.Equal(t, int64(103), idOf(played.Participant2RegistrationID))
	assert.False(t, played.Bye)
	assert.Equal(t, models.MatchStatusScheduled, played.Status)
	assert.Equal(t, final.ID, idOf(played.NextMatchID))
	assert.Equal(t, 2, sideOf(played.WinnerAdvancesAs))

	assert.Equal(t, int64(101), idOf(final.Participant1RegistrationID))
	assert.Nil(t, final.Participant2RegistrationID)
	assert.Equal(t, models.MatchStatusScheduled, final.Status)
	assert.Nil(t, final.NextMatchID)
}

func TestGenerate_SeededFour(t *testing.T) {
	const a, b, c, d int64 = 201, 202, 203, 204
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, a, b, c, d)

	req := &DrawGenerateRequest{Seeds: []brackets.SeedAssignment{
		{RegistrationID: c, SeedNumber: 1},
		{RegistrationID: a, SeedNumber: 2},
	}}
	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, req)
	require.NoError(t, err)
	require.Len(t, summary.Matches, 3)

	first := matchAt(t, summary.Matches, 1, 0)
	assert.Equal(t, c, idOf(first.Participant1RegistrationID))
	assert.Equal(t, d, idOf(first.Participant2RegistrationID))
	assert.Equal(t, 1, sideOf(first.WinnerAdvancesAs))

	second := matchAt(t, summary.Matches, 1, 1)
	assert.Equal(t, a, idOf(second.Participant1RegistrationID))
	assert.Equal(t, b, idOf(second.Participant2RegistrationID))
	assert.Equal(t, 2, sideOf(second.WinnerAdvancesAs))

	final := matchAt(t, summary.Matches, 2, 0)
	assert.Equal(t, final.ID, idOf(first.NextMatchID))
	assert.Equal(t, final.ID, idOf(second.NextMatchID))

	for _, m := range summary.Matches {
		assert.False(t, m.Bye)
	}
}

func TestGenerate_FiveParticipantsByesFeedRoundTwo(t *testing.T) {
	f := newBracketFixture(t)
	regs := registrationRange(5)
	f.store.addRegistrations(testCategoryID, regs...)

	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, summary.EffectiveSize)
	assert.Equal(t, 3, summary.Rounds)
	require.Len(t, summary.Matches, 7)

	// Slots 5, 6 and 7 are vacant, leaving positions 0..2 as BYEs.
	var byePositions []int
	for _, m := range summary.Matches {
		if m.Round == 1 && m.Bye {
			byePositions = append(byePositions, m.Position)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, byePositions)
	for pos := 0; pos < 3; pos++ {
		m := matchAt(t, summary.Matches, 1, pos)
		assert.True(t, m.Bye, "position %d", pos)
		assert.Equal(t, models.MatchStatusCompleted, m.Status)
		assert.Equal(t, regs[pos], idOf(m.Participant1RegistrationID))
	}
	played := matchAt(t, summary.Matches, 1, 3)
	assert.False(t, played.Bye)
	assert.Equal(t, regs[3], idOf(played.Participant1RegistrationID))
	assert.Equal(t, regs[4], idOf(played.Participant2RegistrationID))

	r2p0 := matchAt(t, summary.Matches, 2, 0)
	assert.Equal(t, regs[0], idOf(r2p0.Participant1RegistrationID))
	assert.Equal(t, regs[1], idOf(r2p0.Participant2RegistrationID))

	r2p1 := matchAt(t, summary.Matches, 2, 1)
	assert.Equal(t, regs[2], idOf(r2p1.Participant1RegistrationID))
	assert.Nil(t, r2p1.Participant2RegistrationID)

	final := matchAt(t, summary.Matches, 3, 0)
	assert.Nil(t, final.Participant1RegistrationID)
	assert.Nil(t, final.Participant2RegistrationID)
}

func TestGenerate_EightWithTwoSeeds(t *testing.T) {
	f := newBracketFixture(t)
	regs := registrationRange(8)
	f.store.addRegistrations(testCategoryID, regs...)

	s1, s2 := regs[5], regs[2]
	req := &DrawGenerateRequest{Seeds: []brackets.SeedAssignment{
		{RegistrationID: s2, SeedNumber: 2},
		{RegistrationID: s1, SeedNumber: 1},
	}}
	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, req)
	require.NoError(t, err)

	ord := []int64{s1, s2, regs[0], regs[1], regs[3], regs[4], regs[6], regs[7]}
	for pos := 0; pos < 4; pos++ {
		m := matchAt(t, summary.Matches, 1, pos)
		assert.Equal(t, ord[pos], idOf(m.Participant1RegistrationID), "position %d side 1", pos)
		assert.Equal(t, ord[7-pos], idOf(m.Participant2RegistrationID), "position %d side 2", pos)
		assert.False(t, m.Bye)
	}
}

func TestGenerate_DuplicateSeedsPersistNothing(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, 7, 8, 9)

	req := &DrawGenerateRequest{Seeds: []brackets.SeedAssignment{
		{RegistrationID: 7, SeedNumber: 1},
		{RegistrationID: 9, SeedNumber: 1},
	}}
	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, req)
	require.ErrorIs(t, err, ErrInvalidSeeds)
	assert.Empty(t, f.store.stored(testCategoryID))
	assert.Empty(t, f.notifier.events)
}

func TestGenerate_SingleRegistration(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, 101)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.ErrorIs(t, err, ErrInsufficientParticipants)
	assert.Empty(t, f.store.stored(testCategoryID))
}

func TestGenerate_NoRegistrations(t *testing.T) {
	f := newBracketFixture(t)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestGenerate_TwiceWithoutOverwrite(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(4)...)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)
	before := f.store.stored(testCategoryID)

	_, err = f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.ErrorIs(t, err, ErrBracketAlreadyExists)
	assert.Equal(t, before, f.store.stored(testCategoryID))
	assert.Len(t, f.notifier.events, 1)
}

func TestGenerate_OverwriteDraftMatchesFreshGeneration(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(6)...)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	fresh := newBracketFixture(t)
	fresh.store.addRegistrations(testCategoryID, registrationRange(6)...)
	expected, err := fresh.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	got, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, &DrawGenerateRequest{OverwriteIfDraft: true})
	require.NoError(t, err)

	require.Len(t, got.Matches, len(expected.Matches))
	for i := range expected.Matches {
		e, g := expected.Matches[i], got.Matches[i]
		assert.Equal(t, e.Round, g.Round)
		assert.Equal(t, e.Position, g.Position)
		assert.Equal(t, idOf(e.Participant1RegistrationID), idOf(g.Participant1RegistrationID))
		assert.Equal(t, idOf(e.Participant2RegistrationID), idOf(g.Participant2RegistrationID))
		assert.Equal(t, e.Bye, g.Bye)
		assert.Equal(t, e.Status, g.Status)
		assert.Equal(t, sideOf(e.WinnerAdvancesAs), sideOf(g.WinnerAdvancesAs))
	}
	assert.Len(t, f.store.stored(testCategoryID), len(expected.Matches))
}

func TestGenerate_OverwriteRefusedWhenProgressed(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(4)...)

	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	started := matchAt(t, summary.Matches, 1, 0)
	f.store.matches[started.ID].Status = models.MatchStatusInProgress
	before := f.store.stored(testCategoryID)

	_, err = f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, &DrawGenerateRequest{OverwriteIfDraft: true})
	require.ErrorIs(t, err, ErrBracketAlreadyExists)
	assert.ErrorIs(t, err, ErrBracketInProgress)
	assert.Equal(t, before, f.store.stored(testCategoryID))
}

func TestGenerate_CategoryOfOtherTournament(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(4)...)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID+1, testCategoryID, nil)
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addCategory(testCategoryID, testTournamentID, models.FormatRoundRobin)
	f.store.addRegistrations(testCategoryID, registrationRange(4)...)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, f.store.stored(testCategoryID))
}

func TestGenerate_StorageFailureRollsBack(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(5)...)
	// fails on the first linking update, after all seven inserts
	f.store.failSaveAfter = 8

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage unavailable")
	assert.Empty(t, f.store.stored(testCategoryID))
	assert.Equal(t, 1, f.store.rollbacks)
	assert.Empty(t, f.notifier.events)
}

func TestGenerate_ConcurrentGeneratorLoses(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *memoryStore)
	}{
		{"slot taken on insert", func(s *memoryStore) { s.conflictOnCreate = 3 }},
		{"serialization failure on commit", func(s *memoryStore) { s.commitErr = repositories.ErrMatchSlotConflict }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBracketFixture(t)
			f.store.addRegistrations(testCategoryID, registrationRange(4)...)
			tt.setup(f.store)

			_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
			require.ErrorIs(t, err, ErrBracketAlreadyExists)
			assert.ErrorIs(t, err, repositories.ErrMatchSlotConflict)
			assert.Empty(t, f.store.stored(testCategoryID))
			assert.Equal(t, 1, f.store.rollbacks)
			assert.Zero(t, f.store.commits)
			assert.Empty(t, f.notifier.events)
		})
	}
}

func TestGenerate_Invariants(t *testing.T) {
	for n := 2; n <= 17; n++ {
		f := newBracketFixture(t)
		regs := registrationRange(n)
		f.store.addRegistrations(testCategoryID, regs...)

		summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
		require.NoError(t, err, "n=%d", n)

		size := brackets.NextPowerOfTwo(n)
		require.Len(t, summary.Matches, size-1, "n=%d", n)

		byID := make(map[int64]MatchView, len(summary.Matches))
		perRound := make(map[int]int)
		for _, m := range summary.Matches {
			byID[m.ID] = m
			perRound[m.Round]++
		}
		for r := 1; r <= summary.Rounds; r++ {
			assert.Equal(t, size>>r, perRound[r], "n=%d round %d", n, r)
		}

		seen := make(map[int64]bool)
		byes := 0
		for _, m := range summary.Matches {
			if m.Round == summary.Rounds {
				assert.Nil(t, m.NextMatchID, "n=%d final", n)
				assert.Nil(t, m.WinnerAdvancesAs, "n=%d final", n)
			} else {
				next, ok := byID[idOf(m.NextMatchID)]
				require.True(t, ok, "n=%d R%d P%d has no next match", n, m.Round, m.Position)
				assert.Equal(t, m.Round+1, next.Round)
				assert.Equal(t, m.Position/2, next.Position)
				if m.Position%2 == 0 {
					assert.Equal(t, 1, sideOf(m.WinnerAdvancesAs))
				} else {
					assert.Equal(t, 2, sideOf(m.WinnerAdvancesAs))
				}
			}

			if m.Round != 1 {
				continue
			}
			for _, p := range []*int64{m.Participant1RegistrationID, m.Participant2RegistrationID} {
				if p != nil {
					assert.False(t, seen[*p], "n=%d registration %d placed twice", n, *p)
					seen[*p] = true
				}
			}
			if m.Bye {
				byes++
				assert.Equal(t, models.MatchStatusCompleted, m.Status)
				next := byID[idOf(m.NextMatchID)]
				sole := m.Participant1RegistrationID
				if sole == nil {
					sole = m.Participant2RegistrationID
				}
				if sideOf(m.WinnerAdvancesAs) == 1 {
					assert.Equal(t, *sole, idOf(next.Participant1RegistrationID))
				} else {
					assert.Equal(t, *sole, idOf(next.Participant2RegistrationID))
				}
			}
		}
		assert.Len(t, seen, n, "n=%d", n)
		assert.Equal(t, size-n, byes, "n=%d", n)
	}
}

func TestGetBracket_RoundTrip(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(6)...)

	generated, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	loaded, err := f.service.GetBracket(context.Background(), testCategoryID)
	require.NoError(t, err)
	assert.Equal(t, generated, loaded)
}

func TestGetBracket_EmptyAndMissing(t *testing.T) {
	f := newBracketFixture(t)

	summary, err := f.service.GetBracket(context.Background(), testCategoryID)
	require.NoError(t, err)
	assert.Empty(t, summary.Matches)
	assert.Zero(t, summary.Rounds)

	_, err = f.service.GetBracket(context.Background(), 999)
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDeleteDraftBracket(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(3)...)

	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteDraftBracket(context.Background(), testCategoryID))
	assert.Empty(t, f.store.stored(testCategoryID))

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, brackets.EventBracketGenerated, f.notifier.events[0].eventType)
	assert.Equal(t, brackets.EventBracketDeleted, f.notifier.events[1].eventType)
	assert.Equal(t, testCategoryID, f.notifier.events[1].categoryID)
}

func TestDeleteDraftBracket_RefusedWhenProgressed(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(4)...)

	summary, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)
	played := matchAt(t, summary.Matches, 1, 1)
	f.store.matches[played.ID].Status = models.MatchStatusCompleted

	err = f.service.DeleteDraftBracket(context.Background(), testCategoryID)
	require.ErrorIs(t, err, ErrBracketInProgress)
	assert.Len(t, f.store.stored(testCategoryID), 3)
}

func TestDeleteDraftBracket_UnknownCategory(t *testing.T) {
	f := newBracketFixture(t)

	err := f.service.DeleteDraftBracket(context.Background(), 999)
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestExportBracket(t *testing.T) {
	f := newBracketFixture(t)
	f.store.addRegistrations(testCategoryID, registrationRange(3)...)
	_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	f.service.(*bracketService).now = func() time.Time { return fixed }

	export, err := f.service.ExportBracket(context.Background(), testCategoryID)
	require.NoError(t, err)

	assert.Equal(t, "brackets/category-10/20260314T093000Z.json", export.Key)
	assert.Equal(t, "https://cdn.example.test/brackets/category-10/20260314T093000Z.json", export.URL)
	assert.Equal(t, fixed, export.ExportedAt)

	body, ok := f.uploader.objects[export.Key]
	require.True(t, ok)
	assert.Equal(t, "application/json", f.uploader.types[export.Key])

	var decoded BracketSummary
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, testCategoryID, decoded.CategoryID)
	assert.Len(t, decoded.Matches, 3)
	assert.Equal(t, 3, decoded.TotalParticipants)
}

func TestExportBracket_Errors(t *testing.T) {
	t.Run("empty bracket", func(t *testing.T) {
		f := newBracketFixture(t)
		_, err := f.service.ExportBracket(context.Background(), testCategoryID)
		require.ErrorIs(t, err, ErrBracketNotFound)
	})

	t.Run("storage not configured", func(t *testing.T) {
		store := newMemoryStore()
		svc := NewBracketService(store, memoryCategoryRepo{store}, memoryRegistrationRepo{store}, memoryMatchRepo{store}, nil, nil, nil)
		_, err := svc.ExportBracket(context.Background(), testCategoryID)
		require.ErrorIs(t, err, ErrExportUnavailable)
	})

	t.Run("upload failure", func(t *testing.T) {
		f := newBracketFixture(t)
		f.store.addRegistrations(testCategoryID, registrationRange(2)...)
		_, err := f.service.GenerateSingleElimination(context.Background(), testTournamentID, testCategoryID, nil)
		require.NoError(t, err)

		uploadErr := errors.New("bucket unreachable")
		f.uploader.err = uploadErr
		_, err = f.service.ExportBracket(context.Background(), testCategoryID)
		require.ErrorIs(t, err, uploadErr)
	})
}
