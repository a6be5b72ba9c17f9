package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"fitcomp/models"
	"fitcomp/scoring"
)

type memStore struct {
	mu           sync.Mutex
	competitions map[string]models.Competition
	participants map[string][]string
	users        map[string]models.User
	submissions  map[string]models.Submission
	order        []string
	now          func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		competitions: make(map[string]models.Competition),
		participants: make(map[string][]string),
		users:        make(map[string]models.User),
		submissions:  make(map[string]models.Submission),
		now:          now,
	}
}

func (m *memStore) CreateCompetition(_ context.Context, c *models.Competition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = m.now()
	m.competitions[c.ID] = *c
	return nil
}

func (m *memStore) GetCompetition(_ context.Context, id string) (*models.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[id]
	if !ok {
		return nil, ErrCompetitionNotFound
	}
	return &c, nil
}

func (m *memStore) GetCompetitionByInviteCode(_ context.Context, code string) (*models.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.competitions {
		if c.InviteCode == code {
			return &c, nil
		}
	}
	return nil, ErrCompetitionNotFound
}

func (m *memStore) ListCompetitionsForUser(_ context.Context, userID string) ([]models.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Competition
	for id, users := range m.participants {
		for _, u := range users {
			if u == userID {
				out = append(out, m.competitions[id])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) AddParticipant(_ context.Context, competitionID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.participants[competitionID] {
		if u == userID {
			return nil
		}
	}
	m.participants[competitionID] = append(m.participants[competitionID], userID)
	return nil
}

func (m *memStore) IsParticipant(_ context.Context, competitionID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.participants[competitionID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListParticipants(_ context.Context, competitionID string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Participant, 0, len(m.participants[competitionID]))
	for _, u := range m.participants[competitionID] {
		out = append(out, models.Participant{UserID: u, Username: u})
	}
	return out, nil
}

func (m *memStore) SubmissionHistory(_ context.Context, competitionID, userID, activityType string, w scoring.Window, excludeID string) (scoring.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := make([]models.Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		subs = append(subs, s)
	}
	candidate := models.Submission{ID: excludeID, CompetitionID: competitionID, UserID: userID, ActivityType: activityType}
	return scoring.BuildHistory(subs, candidate, w), nil
}

func (m *memStore) CreateSubmission(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = m.now()
	s.Username = s.UserID
	m.submissions[s.ID] = *s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memStore) GetSubmission(_ context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return &s, nil
}

func (m *memStore) DeleteSubmission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[id]; !ok {
		return ErrSubmissionNotFound
	}
	delete(m.submissions, id)
	return nil
}

func (m *memStore) ListSubmissions(_ context.Context, competitionID string) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Submission
	for _, id := range m.order {
		s, ok := m.submissions[id]
		if ok && s.CompetitionID == competitionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) SetEvidenceURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return ErrSubmissionNotFound
	}
	s.EvidenceURL = url
	m.submissions[id] = s
	return nil
}

// seed inserts a submission directly, bypassing scoring.
func (m *memStore) seed(s models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[s.ID] = s
	m.order = append(m.order, s.ID)
}

type recordingNotifier struct {
	mu      sync.Mutex
	changed []string
}

func (n *recordingNotifier) CompetitionChanged(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, id)
}

type fakeUploader struct {
	url string
	err error
}

func (f fakeUploader) Upload(_ context.Context, file io.Reader, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	return f.url + name, nil
}

var errUpload = errors.New("upload failed")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
