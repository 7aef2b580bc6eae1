// Package testutil holds test doubles and fixtures shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"dilemmas/internal/models"
	"dilemmas/internal/store"
)

// MemStore is an in-memory store.Repository. It enforces the same unique
// constraints as the database, and Transaction undoes every write of a
// failed callback. Transactions run one at a time.
type MemStore struct {
	// Hook, when set, runs before every write with the operation name
	// ("CreateResponse", "IncrementDenunciations", ...). A non-nil return
	// fails the write with that error.
	Hook func(op string) error

	txMu sync.Mutex
	mu   sync.Mutex

	nextID        uint
	clock         time.Time
	users         map[uint]models.User
	dilemmas      map[uint]models.Dilemma
	responses     []models.Response
	denunciations []models.Denunciation
	notifications []models.Notification
}

var _ store.Repository = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    make(map[uint]models.User),
		dilemmas: make(map[uint]models.Dilemma),
	}
}

// journal collects undo steps for a transaction. A nil journal discards them.
type journal struct {
	undo []func()
}

func (j *journal) add(f func()) {
	if j != nil {
		j.undo = append(j.undo, f)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

func (s *MemStore) hook(op string) error {
	if s.Hook == nil {
		return nil
	}
	return s.Hook(op)
}

// tick returns a strictly increasing timestamp and the next id. Callers hold mu.
func (s *MemStore) tick() (uint, time.Time) {
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	return s.nextID, s.clock
}

func (s *MemStore) Transaction(ctx context.Context, fn func(store.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{MemStore: s, j: &journal{}}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		tx.j.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// Users

func (s *MemStore) CreateUser(ctx context.Context, u *models.User) error {
	return s.createUser(nil, u)
}

func (s *MemStore) createUser(j *journal, u *models.User) error {
	if err := s.hook("CreateUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID, u.CreatedAt = s.tick()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	id := u.ID
	j.add(func() { delete(s.users, id) })
	return nil
}

func (s *MemStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// Dilemmas

func (s *MemStore) CreateDilemma(ctx context.Context, d *models.Dilemma) error {
	return s.createDilemma(nil, d)
}

func (s *MemStore) createDilemma(j *journal, d *models.Dilemma) error {
	if err := s.hook("CreateDilemma"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID, d.CreatedAt = s.tick()
	d.UpdatedAt = d.CreatedAt
	if d.Category == "" {
		d.Category = models.DefaultCategory
	}
	s.dilemmas[d.ID] = *d
	id := d.ID
	j.add(func() { delete(s.dilemmas, id) })
	return nil
}

// withCreator fills CreatorName the way the store's join does. Callers hold mu.
func (s *MemStore) withCreator(d models.Dilemma) models.Dilemma {
	d.CreatorName = s.users[d.CreatorID].Name
	return d
}

func (s *MemStore) FindDilemma(ctx context.Context, id uint) (*models.Dilemma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dilemmas[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *MemStore) FindActiveDilemma(ctx context.Context, id uint) (*models.Dilemma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dilemmas[id]
	if !ok || !d.Active {
		return nil, store.ErrNotFound
	}
	d = s.withCreator(d)
	return &d, nil
}

func (s *MemStore) ListActiveDilemmas(ctx context.Context, category string) ([]models.Dilemma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dilemmas := make([]models.Dilemma, 0)
	for _, d := range s.dilemmas {
		if !d.Active || (category != "" && d.Category != category) {
			continue
		}
		dilemmas = append(dilemmas, s.withCreator(d))
	}
	sort.Slice(dilemmas, func(i, k int) bool {
		return newerFirst(dilemmas[i].CreatedAt, dilemmas[i].ID, dilemmas[k].CreatedAt, dilemmas[k].ID)
	})
	return dilemmas, nil
}

func (s *MemStore) UpdateOwnedDilemma(ctx context.Context, id, ownerID uint, fields map[string]any) (*models.Dilemma, error) {
	return s.updateOwnedDilemma(nil, id, ownerID, fields)
}

func (s *MemStore) updateOwnedDilemma(j *journal, id, ownerID uint, fields map[string]any) (*models.Dilemma, error) {
	if err := s.hook("UpdateOwnedDilemma"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dilemmas[id]
	if !ok || !d.Active || d.CreatorID != ownerID {
		return nil, store.ErrNotFound
	}
	before := d
	for column, value := range fields {
		v, _ := value.(string)
		switch column {
		case "title":
			d.Title = v
		case "description":
			d.Description = v
		case "option_a":
			d.OptionA = v
		case "option_b":
			d.OptionB = v
		case "category":
			d.Category = v
		}
	}
	_, d.UpdatedAt = s.tick()
	s.dilemmas[id] = d
	j.add(func() { s.dilemmas[id] = before })

	d = s.withCreator(d)
	return &d, nil
}

func (s *MemStore) DeactivateOwnedDilemma(ctx context.Context, id, ownerID uint) error {
	return s.setActive(nil, "DeactivateOwnedDilemma", id, func(d models.Dilemma) bool {
		return d.Active && d.CreatorID == ownerID
	})
}

func (s *MemStore) DeactivateDilemma(ctx context.Context, id uint) error {
	return s.deactivateDilemma(nil, id)
}

func (s *MemStore) deactivateDilemma(j *journal, id uint) error {
	err := s.setActive(j, "DeactivateDilemma", id, func(models.Dilemma) bool { return true })
	if err == store.ErrNotFound {
		// The database UPDATE matches nothing and reports no error.
		return nil
	}
	return err
}

func (s *MemStore) setActive(j *journal, op string, id uint, match func(models.Dilemma) bool) error {
	if err := s.hook(op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dilemmas[id]
	if !ok || !match(d) {
		return store.ErrNotFound
	}
	wasActive := d.Active
	d.Active = false
	s.dilemmas[id] = d
	j.add(func() {
		d := s.dilemmas[id]
		d.Active = wasActive
		s.dilemmas[id] = d
	})
	return nil
}

// Responses

func (s *MemStore) CreateResponse(ctx context.Context, r *models.Response) error {
	return s.createResponse(nil, r)
}

func (s *MemStore) createResponse(j *journal, r *models.Response) error {
	if err := s.hook("CreateResponse"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.responses {
		if existing.DilemmaID == r.DilemmaID && existing.UserID == r.UserID {
			return store.ErrDuplicate
		}
	}
	r.ID, r.CreatedAt = s.tick()
	s.responses = append(s.responses, *r)
	id := r.ID
	j.add(func() {
		s.responses = removeByID(s.responses, id, func(r models.Response) uint { return r.ID })
	})
	return nil
}

func (s *MemStore) FindResponse(ctx context.Context, dilemmaID, userID uint) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.DilemmaID == dilemmaID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemStore) CountVotes(ctx context.Context, dilemmaID uint) (store.VoteCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts store.VoteCounts
	for _, r := range s.responses {
		if r.DilemmaID != dilemmaID {
			continue
		}
		switch r.ChosenOption {
		case models.OptionA:
			counts.VotesA++
		case models.OptionB:
			counts.VotesB++
		}
	}
	return counts, nil
}

func (s *MemStore) ListResponsesByUser(ctx context.Context, userID uint) ([]store.ResponseDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	responses := make([]store.ResponseDetail, 0)
	for _, r := range s.responses {
		if r.UserID != userID {
			continue
		}
		d := s.dilemmas[r.DilemmaID]
		responses = append(responses, store.ResponseDetail{
			Response: r,
			Title:    d.Title,
			OptionA:  d.OptionA,
			OptionB:  d.OptionB,
		})
	}
	sort.Slice(responses, func(i, k int) bool {
		return newerFirst(responses[i].CreatedAt, responses[i].ID, responses[k].CreatedAt, responses[k].ID)
	})
	return responses, nil
}

// Denunciations

func (s *MemStore) CreateDenunciation(ctx context.Context, d *models.Denunciation) error {
	return s.createDenunciation(nil, d)
}

func (s *MemStore) createDenunciation(j *journal, d *models.Denunciation) error {
	if err := s.hook("CreateDenunciation"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.denunciations {
		if existing.DilemmaID == d.DilemmaID && existing.UserID == d.UserID {
			return store.ErrDuplicate
		}
	}
	d.ID, d.CreatedAt = s.tick()
	s.denunciations = append(s.denunciations, *d)
	id := d.ID
	j.add(func() {
		s.denunciations = removeByID(s.denunciations, id, func(d models.Denunciation) uint { return d.ID })
	})
	return nil
}

func (s *MemStore) HasDenounced(ctx context.Context, dilemmaID, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.denunciations {
		if d.DilemmaID == dilemmaID && d.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) IncrementDenunciations(ctx context.Context, dilemmaID uint) (int, error) {
	return s.incrementDenunciations(nil, dilemmaID)
}

func (s *MemStore) incrementDenunciations(j *journal, dilemmaID uint) (int, error) {
	if err := s.hook("IncrementDenunciations"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dilemmas[dilemmaID]
	if !ok || !d.Active {
		return 0, store.ErrNotFound
	}
	d.TotalDenunciations++
	s.dilemmas[dilemmaID] = d
	j.add(func() {
		d := s.dilemmas[dilemmaID]
		d.TotalDenunciations--
		s.dilemmas[dilemmaID] = d
	})
	return d.TotalDenunciations, nil
}

func (s *MemStore) CountDenunciations(ctx context.Context, dilemmaID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countDenunciations(dilemmaID), nil
}

func (s *MemStore) countDenunciations(dilemmaID uint) int64 {
	var n int64
	for _, d := range s.denunciations {
		if d.DilemmaID == dilemmaID {
			n++
		}
	}
	return n
}

func (s *MemStore) SetDenunciationCount(ctx context.Context, dilemmaID uint, count int) error {
	return s.setDenunciationCount(nil, dilemmaID, count)
}

func (s *MemStore) setDenunciationCount(j *journal, dilemmaID uint, count int) error {
	if err := s.hook("SetDenunciationCount"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dilemmas[dilemmaID]
	if !ok {
		return store.ErrNotFound
	}
	before := d.TotalDenunciations
	d.TotalDenunciations = count
	s.dilemmas[dilemmaID] = d
	j.add(func() {
		d := s.dilemmas[dilemmaID]
		d.TotalDenunciations = before
		s.dilemmas[dilemmaID] = d
	})
	return nil
}

func (s *MemStore) ListDenouncedDilemmas(ctx context.Context) ([]store.DenouncedDilemma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dilemmas := make([]store.DenouncedDilemma, 0)
	for _, d := range s.dilemmas {
		if d.TotalDenunciations <= 0 {
			continue
		}
		dilemmas = append(dilemmas, store.DenouncedDilemma{
			Dilemma:               s.withCreator(d),
			VerifiedDenunciations: s.countDenunciations(d.ID),
		})
	}
	sort.Slice(dilemmas, func(i, k int) bool {
		a, b := dilemmas[i], dilemmas[k]
		if a.TotalDenunciations != b.TotalDenunciations {
			return a.TotalDenunciations > b.TotalDenunciations
		}
		return newerFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return dilemmas, nil
}

func (s *MemStore) ListDenunciations(ctx context.Context, dilemmaID uint) ([]store.DenunciationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	denunciations := make([]store.DenunciationDetail, 0)
	for _, d := range s.denunciations {
		if d.DilemmaID != dilemmaID {
			continue
		}
		u := s.users[d.UserID]
		denunciations = append(denunciations, store.DenunciationDetail{
			Denunciation:   d,
			DenouncerName:  u.Name,
			DenouncerEmail: u.Email,
		})
	}
	sort.Slice(denunciations, func(i, k int) bool {
		a, b := denunciations[i], denunciations[k]
		return newerFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return denunciations, nil
}

// Notifications

func (s *MemStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.createNotification(nil, n)
}

func (s *MemStore) createNotification(j *journal, n *models.Notification) error {
	if err := s.hook("CreateNotification"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID, n.CreatedAt = s.tick()
	s.notifications = append(s.notifications, *n)
	id := n.ID
	j.add(func() {
		s.notifications = removeByID(s.notifications, id, func(n models.Notification) uint { return n.ID })
	})
	return nil
}

func (s *MemStore) ListNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := make([]models.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, k int) bool {
		a, b := notifications[i], notifications[k]
		return newerFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return notifications, nil
}

func (s *MemStore) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	return s.markNotificationRead(nil, id, userID)
}

func (s *MemStore) markNotificationRead(j *journal, id, userID uint) error {
	if err := s.hook("MarkNotificationRead"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID != id || n.UserID != userID {
			continue
		}
		wasRead := n.IsRead
		n.IsRead = true
		j.add(func() {
			for i := range s.notifications {
				if s.notifications[i].ID == id {
					s.notifications[i].IsRead = wasRead
				}
			}
		})
		return nil
	}
	return store.ErrNotFound
}

func newerFirst(at time.Time, aID uint, bt time.Time, bID uint) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return aID > bID
}

func removeByID[T any](rows []T, id uint, idOf func(T) uint) []T {
	out := rows[:0]
	for _, r := range rows {
		if idOf(r) != id {
			out = append(out, r)
		}
	}
	return out
}
