// database/store.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fitcomp/models"
	"fitcomp/scoring"
	"fitcomp/services"
)

const uniqueViolation = "23505"

// Store implements the service store interfaces on PostgreSQL.
type Store struct {
	db *sql.DB
}

var (
	_ services.CompetitionStore = (*Store)(nil)
	_ services.SubmissionStore  = (*Store)(nil)
	_ services.UserStore        = (*Store)(nil)
)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ============ USERS ============

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, full_name, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Avatar).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return services.ErrUserExists
	}
	return err
}

const userColumns = `id, username, email, password_hash, full_name, avatar, created_at, last_login`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Avatar, &u.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByLogin matches either username or email.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, login))
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return err
}

func (s *Store) UpdateProfile(ctx context.Context, id, fullName string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET full_name = $2 WHERE id = $1`, id, fullName)
	if err != nil {
		return err
	}
	return expectOne(res, services.ErrUserNotFound)
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	return expectOne(res, services.ErrUserNotFound)
}

func (s *Store) SetAvatar(ctx context.Context, id, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET avatar = $2 WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	return expectOne(res, services.ErrUserNotFound)
}

// ============ COMPETITIONS ============

func (s *Store) CreateCompetition(ctx context.Context, c *models.Competition) error {
	rules, err := json.Marshal(c.Rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return s.db.QueryRowContext(ctx, `
		INSERT INTO competitions
			(id, name, description, owner_id, invite_code, start_date, end_date,
			 daily_cap, leaderboard_update_days, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, c.ID, c.Name, c.Description, c.OwnerID, c.InviteCode, c.StartDate, c.EndDate,
		nullFloat(c.DailyCap), c.LeaderboardUpdateDays, string(rules),
	).Scan(&c.CreatedAt)
}

const competitionColumns = `c.id, c.name, c.description, c.owner_id, c.invite_code, c.start_date,
	c.end_date, c.daily_cap, c.leaderboard_update_days, c.rules, c.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCompetition(row scanner) (*models.Competition, error) {
	var c models.Competition
	var dailyCap sql.NullFloat64
	var rules []byte
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.InviteCode, &c.StartDate,
		&c.EndDate, &dailyCap, &c.LeaderboardUpdateDays, &rules, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrCompetitionNotFound
	}
	if err != nil {
		return nil, err
	}
	if dailyCap.Valid {
		c.DailyCap = &dailyCap.Float64
	}
	if err := json.Unmarshal(rules, &c.Rules); err != nil {
		return nil, fmt.Errorf("decode rules for %s: %w", c.ID, err)
	}
	return &c, nil
}

func (s *Store) GetCompetition(ctx context.Context, id string) (*models.Competition, error) {
	return scanCompetition(s.db.QueryRowContext(ctx,
		`SELECT `+competitionColumns+` FROM competitions c WHERE c.id = $1`, id))
}

func (s *Store) GetCompetitionByInviteCode(ctx context.Context, code string) (*models.Competition, error) {
	return scanCompetition(s.db.QueryRowContext(ctx,
		`SELECT `+competitionColumns+` FROM competitions c WHERE c.invite_code = $1`, code))
}

func (s *Store) ListCompetitionsForUser(ctx context.Context, userID string) ([]models.Competition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+competitionColumns+`
		FROM competitions c
		JOIN competition_participants p ON p.competition_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.start_date DESC, c.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Competition{}
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// AddParticipant is a no-op when the user already joined.
func (s *Store) AddParticipant(ctx context.Context, competitionID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competition_participants (competition_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (competition_id, user_id) DO NOTHING
	`, competitionID, userID)
	return err
}

func (s *Store) IsParticipant(ctx context.Context, competitionID, userID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM competition_participants
			WHERE competition_id = $1 AND user_id = $2
		)
	`, competitionID, userID).Scan(&ok)
	return ok, err
}

func (s *Store) ListParticipants(ctx context.Context, competitionID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.avatar
		FROM competition_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.competition_id = $1
		ORDER BY p.joined_at
	`, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Username, &p.Avatar); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ============ SUBMISSIONS ============

// SubmissionHistory computes all three aggregates in one round trip.
func (s *Store) SubmissionHistory(ctx context.Context, competitionID, userID, activityType string, w scoring.Window, excludeID string) (scoring.History, error) {
	var h scoring.History
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(points) FILTER (WHERE date >= $4 AND date < $5), 0),
			COALESCE(SUM(points) FILTER (WHERE activity_type = $3 AND date >= $6 AND date < $7), 0),
			COUNT(*) FILTER (WHERE activity_type = $3 AND date >= $4 AND date < $5)
		FROM submissions
		WHERE competition_id = $1
		  AND user_id = $2
		  AND id <> $8
		  AND date >= LEAST($4::timestamptz, $6::timestamptz)
		  AND date < GREATEST($5::timestamptz, $7::timestamptz)
	`, competitionID, userID, activityType, w.DayStart, w.DayEnd, w.WeekStart, w.WeekEnd, excludeID,
	).Scan(&h.PointsToday, &h.PointsThisWeek, &h.SubmissionsToday)
	if err != nil {
		return scoring.History{}, err
	}
	return h, nil
}

func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	return s.db.QueryRowContext(ctx, `
		INSERT INTO submissions
			(id, competition_id, user_id, activity_type, unit, quantity, pace, points, notes, evidence_url, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, sub.ID, sub.CompetitionID, sub.UserID, sub.ActivityType, sub.Unit, sub.Quantity,
		nullFloat(sub.Pace), sub.Points, sub.Notes, sub.EvidenceURL, sub.Date,
	).Scan(&sub.CreatedAt)
}

const submissionColumns = `s.id, s.competition_id, s.user_id, u.username, s.activity_type, s.unit,
	s.quantity, s.pace, s.points, s.notes, s.evidence_url, s.date, s.created_at`

func scanSubmission(row scanner) (*models.Submission, error) {
	var sub models.Submission
	var pace sql.NullFloat64
	err := row.Scan(&sub.ID, &sub.CompetitionID, &sub.UserID, &sub.Username, &sub.ActivityType, &sub.Unit,
		&sub.Quantity, &pace, &sub.Points, &sub.Notes, &sub.EvidenceURL, &sub.Date, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	if pace.Valid {
		sub.Pace = &pace.Float64
	}
	return &sub, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	return scanSubmission(s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions s JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`, id))
}

func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, services.ErrSubmissionNotFound)
}

func (s *Store) ListSubmissions(ctx context.Context, competitionID string) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions s JOIN users u ON u.id = s.user_id
		WHERE s.competition_id = $1
		ORDER BY s.created_at, s.id
	`, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sub)
	}
	return list, rows.Err()
}

func (s *Store) SetEvidenceURL(ctx context.Context, id, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET evidence_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	return expectOne(res, services.ErrSubmissionNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
