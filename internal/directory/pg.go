package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"iam-service/internal/db"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// PGStore is the canonical Postgres-backed directory.
type PGStore struct {
	db *db.DB
}

func NewPGStore(db *db.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*User, error) {
	u := &User{}
	var iamUID sql.NullString
	var lastRefresh sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, email_verified, name, iam_uid, iam_last_refresh
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.EmailVerified, &u.Name, &iamUID, &lastRefresh)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: find user %s: %w", id, err)
	}

	if iamUID.Valid {
		u.IAMUID = iamUID.String
	}
	if lastRefresh.Valid {
		t := lastRefresh.Time
		u.LastRefresh = &t
	}

	if err := s.loadSecondaryEmails(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var id string

	// Primary and secondary addresses both identify an account.
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id
		FROM users u
		LEFT JOIN secondary_emails se ON se.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
		   OR LOWER(se.email) = LOWER($1)
		LIMIT 1
	`, email).Scan(&id)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("directory: find user by email: %w", err)
	}

	return s.FindByID(ctx, id)
}

func (s *PGStore) Create(ctx context.Context, email string, emailVerified bool, name string) (*User, error) {
	u := &User{
		Email:         email,
		EmailVerified: emailVerified,
		Name:          name,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, email_verified, name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, email, emailVerified, name).Scan(&u.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("directory: create user: %w", err)
	}

	return u, nil
}

func (s *PGStore) AddSecondaryEmail(ctx context.Context, userID, email string) error {
	// The unique index on secondary_emails only covers secondaries, so
	// primary ownership has to be checked up front.
	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE LOWER(email) = LOWER($1)
		)
	`, email).Scan(&taken)

	if err != nil {
		return fmt.Errorf("directory: check primary ownership: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO secondary_emails (user_id, email)
		VALUES ($1, $2)
	`, userID, email)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("directory: add secondary email: %w", err)
	}

	return nil
}

func (s *PGStore) RemoveSecondaryEmail(ctx context.Context, userID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM secondary_emails
		WHERE user_id = $1 AND LOWER(email) = LOWER($2)
	`, userID, email)

	if err != nil {
		return fmt.Errorf("directory: remove secondary email: %w", err)
	}
	return nil
}

func (s *PGStore) SetIAMState(ctx context.Context, userID, iamUID string, lastRefresh time.Time) error {
	// Single statement keeps the uid/refresh pair atomic.
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET iam_uid = $2, iam_last_refresh = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, iamUID, lastRefresh)

	if err != nil {
		return fmt.Errorf("directory: set iam state: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) loadSecondaryEmails(ctx context.Context, u *User) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email FROM secondary_emails
		WHERE user_id = $1
		ORDER BY created_at
	`, u.ID)

	if err != nil {
		return fmt.Errorf("directory: load secondary emails: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return err
		}
		u.SecondaryEmails = append(u.SecondaryEmails, e)
	}
	return rows.Err()
}
