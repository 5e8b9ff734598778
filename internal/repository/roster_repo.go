package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mathclub/internal/database"
	"mathclub/internal/models"
)

// RosterRepository reads students together with the accounts, parents and
// credentials needed to resolve and display them
type RosterRepository struct {
	db database.DBTX
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db database.DBTX) *RosterRepository {
	return &RosterRepository{db: db}
}

const rosterSelect = `
	SELECT s.id,
	       COALESCE(NULLIF(sa.name, ''), s.name),
	       s.grade,
	       s.account_id,
	       p.account_id,
	       COALESCE(s.school, ''),
	       COALESCE(s.email, ''),
	       COALESCE(s.phone_number, ''),
	       COALESCE(p.email, ''),
	       COALESCE(p.phone_number, ''),
	       COALESCE(sa.uid, ''),
	       COALESCE(sc.username, ''),
	       COALESCE(pc.username, ''),
	       s.created_at
	FROM students s
	LEFT JOIN accounts sa ON s.account_id = sa.id
	LEFT JOIN parents p ON s.parent_id = p.id
	LEFT JOIN credentials sc ON s.account_id = sc.account_id
	LEFT JOIN credentials pc ON p.account_id = pc.account_id
`

// ListStudents returns one page of the roster, newest students first
func (r *RosterRepository) ListStudents(ctx context.Context, skip, limit int) ([]models.RosterEntry, error) {
	query := rosterSelect + `
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		entry, err := scanRosterEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return entries, nil
}

// GetStudent retrieves a single roster entry, or nil when the student does not exist
func (r *RosterRepository) GetStudent(ctx context.Context, studentID int64) (*models.RosterEntry, error) {
	entry, err := scanRosterEntry(r.db.QueryRowContext(ctx, rosterSelect+" WHERE s.id = ?", studentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return entry, nil
}

// CountStudents returns the size of the roster
func (r *RosterRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// ListParents returns every parent account that has a contact email
func (r *RosterRepository) ListParents(ctx context.Context) ([]models.Parent, error) {
	query := `
		SELECT p.id, p.account_id, COALESCE(a.name, ''), COALESCE(NULLIF(p.email, ''), a.email, ''), COALESCE(p.phone_number, '')
		FROM parents p
		JOIN accounts a ON p.account_id = a.id
		ORDER BY p.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parents: %w", err)
	}
	defer rows.Close()

	var parents []models.Parent
	for rows.Next() {
		var p models.Parent
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Name, &p.Email, &p.PhoneNumber); err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		if p.Email == "" {
			continue
		}
		parents = append(parents, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parents: %w", err)
	}

	return parents, nil
}

// ListStudentsByParent returns the students managed by a parent account
func (r *RosterRepository) ListStudentsByParent(ctx context.Context, parentAccountID int64) ([]models.RosterEntry, error) {
	query := rosterSelect + `
		WHERE p.account_id = ?
		ORDER BY s.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, parentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parent students: %w", err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		entry, err := scanRosterEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// CreateAccount inserts a login account and returns its ID
func (r *RosterRepository) CreateAccount(ctx context.Context, uid, name, email, role string) (int64, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO accounts (uid, name, email, role, created_at) VALUES (?, ?, ?, ?, ?)",
		nullString(uid), name, nullString(email), role, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}

// CreateParent attaches parent contact details to an account
func (r *RosterRepository) CreateParent(ctx context.Context, accountID int64, phoneNumber, email string) (int64, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO parents (account_id, phone_number, email) VALUES (?, ?, ?)",
		accountID, nullString(phoneNumber), nullString(email))
	if err != nil {
		return 0, fmt.Errorf("failed to create parent: %w", err)
	}
	return id, nil
}

// CreateStudent inserts a student. accountID and parentID may be nil.
func (r *RosterRepository) CreateStudent(ctx context.Context, accountID, parentID *int64, name, grade, school string) (int64, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO students (account_id, parent_id, name, grade, school, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		accountID, parentID, name, grade, nullString(school), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create student: %w", err)
	}
	return id, nil
}

// CreateCredential issues a username login to an account
func (r *RosterRepository) CreateCredential(ctx context.Context, accountID int64, username string) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO credentials (account_id, username) VALUES (?, ?)", accountID, username)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// AccountsWithCredentials returns the subset of accountIDs that hold a username login
func (r *RosterRepository) AccountsWithCredentials(ctx context.Context, accountIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool)
	if len(accountIDs) == 0 {
		return result, nil
	}

	query := "SELECT account_id FROM credentials WHERE account_id IN (" + database.Placeholders(len(accountIDs)) + ")"
	rows, err := r.db.QueryContext(ctx, query, int64Args(accountIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credentials: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRosterEntry(row rowScanner) (*models.RosterEntry, error) {
	var (
		entry    models.RosterEntry
		selfID   sql.NullInt64
		parentID sql.NullInt64
		joinedAt sql.NullTime
	)
	err := row.Scan(
		&entry.StudentID,
		&entry.DisplayName,
		&entry.Grade,
		&selfID,
		&parentID,
		&entry.School,
		&entry.Email,
		&entry.PhoneNumber,
		&entry.ParentEmail,
		&entry.ParentPhone,
		&entry.AccountUID,
		&entry.StudentTicket,
		&entry.ParentTicket,
		&joinedAt,
	)
	if err != nil {
		return nil, err
	}

	if selfID.Valid {
		id := selfID.Int64
		entry.SelfAccountID = &id
	}
	if parentID.Valid {
		id := parentID.Int64
		entry.ParentAccountID = &id
	}
	if joinedAt.Valid {
		t := joinedAt.Time
		entry.JoinedAt = &t
	}

	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
