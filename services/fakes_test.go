package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/venky0589/arenaflow/models"
	"github.com/venky0589/arenaflow/repositories"
	"github.com/venky0589/arenaflow/storage"
)

// memoryStore backs the category, registration and match repositories with
// maps. Transactions snapshot the matches and restore them on error.
type memoryStore struct {
	mu sync.Mutex

	categories    map[int64]*models.Category
	registrations map[int64][]*models.Registration
	matches       map[int64]*models.Match
	nextID        int64

	// failSaveAfter makes the n-th Save call fail when positive.
	failSaveAfter int
	// conflictOnCreate makes the n-th Create report a taken slot, as when a
	// concurrent generator inserted first.
	conflictOnCreate int
	// commitErr is returned in place of a successful commit.
	commitErr error

	saves     int
	creates   int
	commits   int
	rollbacks int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		categories:    make(map[int64]*models.Category),
		registrations: make(map[int64][]*models.Registration),
		matches:       make(map[int64]*models.Match),
	}
}

func (s *memoryStore) addCategory(id, tournamentID int64, format models.CategoryFormat) {
	s.categories[id] = &models.Category{
		ID:           id,
		TournamentID: tournamentID,
		Name:         fmt.Sprintf("Category %d", id),
		CategoryType: models.CategorySingles,
		Format:       format,
	}
}

func (s *memoryStore) addRegistrations(categoryID int64, ids ...int64) {
	for _, id := range ids {
		s.registrations[categoryID] = append(s.registrations[categoryID], &models.Registration{
			ID:         id,
			CategoryID: categoryID,
			PlayerID:   id * 10,
		})
	}
}

func (s *memoryStore) stored(categoryID int64) []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(categoryID)
}

func (s *memoryStore) listLocked(categoryID int64) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range s.matches {
		if m.CategoryID == categoryID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (s *memoryStore) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.mu.Lock()
	snapshot := make(map[int64]models.Match, len(s.matches))
	for id, m := range s.matches {
		snapshot[id] = *m
	}
	nextID := s.nextID
	s.mu.Unlock()

	err := fn(nil)
	if err == nil && s.commitErr != nil {
		err = s.commitErr
	}
	if err != nil {
		s.mu.Lock()
		s.matches = make(map[int64]*models.Match, len(snapshot))
		for id, m := range snapshot {
			cp := m
			s.matches[id] = &cp
		}
		s.nextID = nextID
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

type memoryCategoryRepo struct{ s *memoryStore }

func (r memoryCategoryRepo) GetByIDAndTournament(_ context.Context, _ repositories.SQLExecutor, categoryID, tournamentID int64) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[categoryID]
	if !ok || c.TournamentID != tournamentID {
		return nil, repositories.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memoryCategoryRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, categoryID int64) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[categoryID]
	if !ok {
		return nil, repositories.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

type memoryRegistrationRepo struct{ s *memoryStore }

func (r memoryRegistrationRepo) ListByCategory(_ context.Context, _ repositories.SQLExecutor, categoryID int64) ([]*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*models.Registration(nil), r.s.registrations[categoryID]...), nil
}

type memoryMatchRepo struct{ s *memoryStore }

func (r memoryMatchRepo) ExistsForCategory(_ context.Context, _ repositories.SQLExecutor, categoryID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.listLocked(categoryID)) > 0, nil
}

func (r memoryMatchRepo) ListByCategory(_ context.Context, _ repositories.SQLExecutor, categoryID int64) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.listLocked(categoryID), nil
}

func (r memoryMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r memoryMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.creates++
	if r.s.conflictOnCreate > 0 && r.s.creates == r.s.conflictOnCreate {
		return repositories.ErrMatchSlotConflict
	}
	for _, m := range r.s.matches {
		if m.CategoryID == match.CategoryID && m.Round == match.Round && m.Position == match.Position {
			return repositories.ErrMatchSlotConflict
		}
	}
	r.s.nextID++
	match.ID = r.s.nextID
	match.CreatedAt = time.Now()
	match.UpdatedAt = match.CreatedAt
	cp := *match
	r.s.matches[match.ID] = &cp
	return nil
}

func (r memoryMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	match.UpdatedAt = time.Now()
	cp := *match
	r.s.matches[match.ID] = &cp
	return nil
}

func (r memoryMatchRepo) Save(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	r.s.saves++
	fail := r.s.failSaveAfter > 0 && r.s.saves >= r.s.failSaveAfter
	r.s.mu.Unlock()
	if fail {
		return errors.New("storage unavailable")
	}
	if match.ID == 0 {
		return r.Create(ctx, exec, match)
	}
	return r.Update(ctx, exec, match)
}

func (r memoryMatchRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.s.matches, id)
	return nil
}

type notification struct {
	categoryID int64
	eventType  string
	payload    interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) NotifyCategory(categoryID int64, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{categoryID: categoryID, eventType: eventType, payload: payload})
}

type memoryUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

var _ storage.FileUploader = (*memoryUploader)(nil)

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (u *memoryUploader) Upload(_ context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.objects[key] = buf.Bytes()
	u.types[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: `"etag"`}, nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}
