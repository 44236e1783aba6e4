package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryStore keeps everything in process. Units run one at a time against a
// working copy that replaces the committed state only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState(), now: func() time.Time { return time.Now().UTC() }}
}

// SetNow replaces the timestamp source used for created_at style columns.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Tx(ctx context.Context, fn func(r Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	m := &memRepos{st: work, now: s.now}
	r := Repos{
		Challenges: memChallenges{m},
		Members:    memMembers{m},
		Habits:     memHabits{m},
		Checkins:   memCheckins{m},
		Hearts:     memHearts{m},
		Backups:    memBackups{m},
	}
	if err := fn(r); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memoryState struct {
	habits     map[string]models.Habit
	templates  map[string]models.Template
	mappings   []models.TemplateHabit
	challenges map[string]models.Challenge
	members    map[string]models.Membership
	selections map[string][]string
	checkins   map[string]models.Checkin
	hearts     []models.HeartsTransaction
	backups    []models.MemberBackup
	seq        uint64
}

func newMemoryState() *memoryState {
	return &memoryState{
		habits:     make(map[string]models.Habit),
		templates:  make(map[string]models.Template),
		challenges: make(map[string]models.Challenge),
		members:    make(map[string]models.Membership),
		selections: make(map[string][]string),
		checkins:   make(map[string]models.Checkin),
	}
}

func (st *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range st.habits {
		c.habits[k] = v
	}
	for k, v := range st.templates {
		c.templates[k] = v
	}
	c.mappings = append([]models.TemplateHabit(nil), st.mappings...)
	for k, v := range st.challenges {
		c.challenges[k] = v
	}
	for k, v := range st.members {
		c.members[k] = v
	}
	for k, v := range st.selections {
		c.selections[k] = append([]string(nil), v...)
	}
	for k, v := range st.checkins {
		v.CompletedHabitIDs = append(models.HabitIDs(nil), v.CompletedHabitIDs...)
		c.checkins[k] = v
	}
	c.hearts = append([]models.HeartsTransaction(nil), st.hearts...)
	c.backups = append([]models.MemberBackup(nil), st.backups...)
	c.seq = st.seq
	return c
}

type memRepos struct {
	st  *memoryState
	now func() time.Time
}

func (m *memRepos) nextID() uint64 {
	m.st.seq++
	return m.st.seq
}

func checkinKey(membershipID string, day int) string {
	return fmt.Sprintf("%s/%d", membershipID, day)
}

func errDuplicate(what string) error {
	return fmt.Errorf("%w: %s", gorm.ErrDuplicatedKey, what)
}

type memChallenges struct{ *memRepos }

func (r memChallenges) Create(_ context.Context, c *models.Challenge) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for _, existing := range r.st.challenges {
		if existing.Code == c.Code {
			return errDuplicate("challenge code " + c.Code)
		}
	}
	c.CreatedAt = r.now()
	c.UpdatedAt = c.CreatedAt
	r.st.challenges[c.ID] = *c
	return nil
}

func (r memChallenges) Get(_ context.Context, id string) (*models.Challenge, error) {
	c, ok := r.st.challenges[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memChallenges) GetByCode(_ context.Context, code string) (*models.Challenge, error) {
	for _, c := range r.st.challenges {
		if c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r memChallenges) ListActive(_ context.Context) ([]models.Challenge, error) {
	var out []models.Challenge
	for _, c := range r.st.challenges {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memChallenges) Save(_ context.Context, c *models.Challenge) error {
	c.UpdatedAt = r.now()
	r.st.challenges[c.ID] = *c
	return nil
}

type memMembers struct{ *memRepos }

func (r memMembers) Create(_ context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.UpdatedAt = r.now()
	r.st.members[m.ID] = *m
	return nil
}

func (r memMembers) GetActive(_ context.Context, challengeID, userID string) (*models.Membership, error) {
	for _, m := range r.st.members {
		if m.ChallengeID == challengeID && m.UserID == userID && m.Status == models.StatusActive && !m.DeletedAt.Valid {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r memMembers) GetLatest(_ context.Context, challengeID, userID string) (*models.Membership, error) {
	var latest *models.Membership
	for _, m := range r.st.members {
		if m.ChallengeID != challengeID || m.UserID != userID {
			continue
		}
		if latest == nil || m.JoinedAt.After(latest.JoinedAt) ||
			(m.JoinedAt.Equal(latest.JoinedAt) && !m.DeletedAt.Valid) {
			m := m
			latest = &m
		}
	}
	return latest, nil
}

func (r memMembers) ListActive(_ context.Context, challengeID string) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range r.st.members {
		if m.ChallengeID == challengeID && m.Status == models.StatusActive && !m.DeletedAt.Valid {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memMembers) Save(_ context.Context, m *models.Membership) error {
	m.UpdatedAt = r.now()
	r.st.members[m.ID] = *m
	return nil
}

func (r memMembers) Remove(_ context.Context, m *models.Membership, status models.MemberStatus) error {
	now := r.now()
	m.Status = status
	m.LeftAt = &now
	m.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
	m.UpdatedAt = now
	r.st.members[m.ID] = *m
	return nil
}

type memHabits struct{ *memRepos }

func (r memHabits) template(t models.Template) *models.Template {
	t.Habits = nil
	for _, m := range r.st.mappings {
		if m.TemplateID != t.ID {
			continue
		}
		m.Habit = r.st.habits[m.HabitID]
		t.Habits = append(t.Habits, m)
	}
	return &t
}

func (r memHabits) GetTemplate(_ context.Context, id string) (*models.Template, error) {
	t, ok := r.st.templates[id]
	if !ok {
		return nil, nil
	}
	return r.template(t), nil
}

func (r memHabits) GetTemplateByKey(_ context.Context, key string) (*models.Template, error) {
	for _, t := range r.st.templates {
		if t.Key == key {
			return r.template(t), nil
		}
	}
	return nil, nil
}

func (r memHabits) UpsertHabit(_ context.Context, h *models.Habit) error {
	for _, existing := range r.st.habits {
		if existing.Title == h.Title {
			h.ID = existing.ID
			h.CreatedAt = existing.CreatedAt
			r.st.habits[h.ID] = *h
			return nil
		}
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = r.now()
	r.st.habits[h.ID] = *h
	return nil
}

func (r memHabits) UpsertTemplate(_ context.Context, t *models.Template) error {
	for _, existing := range r.st.templates {
		if existing.Key == t.Key {
			t.ID = existing.ID
			t.CreatedAt = existing.CreatedAt
			break
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
		t.CreatedAt = r.now()
	}
	t.UpdatedAt = r.now()

	stored := *t
	stored.Habits = nil
	r.st.templates[t.ID] = stored

	for i := range t.Habits {
		m := &t.Habits[i]
		m.TemplateID = t.ID
		row := *m
		row.Habit = models.Habit{}

		replaced := false
		for j, existing := range r.st.mappings {
			if existing.TemplateID == row.TemplateID && existing.HabitID == row.HabitID {
				row.ID = existing.ID
				r.st.mappings[j] = row
				replaced = true
				break
			}
		}
		if !replaced {
			row.ID = r.nextID()
			r.st.mappings = append(r.st.mappings, row)
		}
		m.ID = row.ID
	}
	return nil
}

func (r memHabits) Selection(_ context.Context, membershipID string) ([]string, error) {
	return append([]string(nil), r.st.selections[membershipID]...), nil
}

func (r memHabits) ReplaceSelection(_ context.Context, membershipID string, habitIDs []string) error {
	seen := make(map[string]bool, len(habitIDs))
	ids := make([]string, 0, len(habitIDs))
	for _, id := range habitIDs {
		if seen[id] {
			return errDuplicate("selection " + id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	r.st.selections[membershipID] = ids
	return nil
}

type memCheckins struct{ *memRepos }

func (r memCheckins) Get(_ context.Context, membershipID string, day int) (*models.Checkin, error) {
	c, ok := r.st.checkins[checkinKey(membershipID, day)]
	if !ok {
		return nil, nil
	}
	c.CompletedHabitIDs = append(models.HabitIDs(nil), c.CompletedHabitIDs...)
	return &c, nil
}

func (r memCheckins) ListRange(_ context.Context, membershipID string, fromDay, toDay int) ([]models.Checkin, error) {
	var out []models.Checkin
	for _, c := range r.st.checkins {
		if c.MembershipID == membershipID && c.DayNumber >= fromDay && c.DayNumber <= toDay {
			c.CompletedHabitIDs = append(models.HabitIDs(nil), c.CompletedHabitIDs...)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (r memCheckins) Create(_ context.Context, c *models.Checkin) error {
	key := checkinKey(c.MembershipID, c.DayNumber)
	if _, ok := r.st.checkins[key]; ok {
		return errDuplicate("checkin " + key)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.now()
	c.UpdatedAt = c.CreatedAt
	r.st.checkins[key] = *c
	return nil
}

func (r memCheckins) Save(_ context.Context, c *models.Checkin) error {
	c.UpdatedAt = r.now()
	stored := *c
	stored.CompletedHabitIDs = append(models.HabitIDs(nil), c.CompletedHabitIDs...)
	r.st.checkins[checkinKey(c.MembershipID, c.DayNumber)] = stored
	return nil
}

type memHearts struct{ *memRepos }

func (r memHearts) Append(_ context.Context, tx *models.HeartsTransaction) error {
	if tx.IdempotencyKey != nil {
		for _, existing := range r.st.hearts {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *tx.IdempotencyKey {
				return errDuplicate("hearts key " + *tx.IdempotencyKey)
			}
		}
	}
	tx.ID = r.nextID()
	tx.CreatedAt = r.now()
	r.st.hearts = append(r.st.hearts, *tx)
	return nil
}

func (r memHearts) ListForMember(_ context.Context, challengeID, membershipID string) ([]models.HeartsTransaction, error) {
	var out []models.HeartsTransaction
	for _, tx := range r.st.hearts {
		if tx.ChallengeID == challengeID && (tx.FromMemberID == membershipID || tx.ToMemberID == membershipID) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r memHearts) ExistsByKey(_ context.Context, key string) (bool, error) {
	for _, tx := range r.st.hearts {
		if tx.IdempotencyKey != nil && *tx.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

type memBackups struct{ *memRepos }

func (r memBackups) Create(_ context.Context, b *models.MemberBackup) error {
	b.ID = r.nextID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}
	r.st.backups = append(r.st.backups, *b)
	return nil
}

func (r memBackups) ListForMember(_ context.Context, membershipID string, limit int) ([]models.MemberBackup, error) {
	var out []models.MemberBackup
	for i := len(r.st.backups) - 1; i >= 0; i-- {
		b := r.st.backups[i]
		if b.MembershipID != membershipID {
			continue
		}
		out = append(out, b)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r memBackups) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	kept := r.st.backups[:0:0]
	var removed int64
	for _, b := range r.st.backups {
		if b.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	r.st.backups = kept
	return removed, nil
}
