package storage

import (
	"context"
	"fmt"

	"budgettracker/internal/core"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, date_joined`

func scanUser(r rowScanner) (core.User, error) {
	var u core.User
	err := r.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.DateJoined)
	return u, err
}

// CreateUser inserts u and returns it with ID and DateJoined set.
// A duplicate username or email yields core.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.DateJoined = s.timestamp()
	err := s.queryRow(ctx,
		`INSERT INTO users (username, email, first_name, last_name, password_hash, date_joined)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.DateJoined,
	).Scan(&u.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", translate(err))
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, translate(err))
	}
	return u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, translate(err))
	}
	return u, nil
}

// UsernameTaken reports whether another user (not exceptID) owns username.
func (s *Store) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int64
	err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`, username, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// EmailTaken reports whether another user (not exceptID) owns email,
// ignoring case.
func (s *Store) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int64
	err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE lower(email) = lower(?) AND id <> ?`, email, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// UpdateUser saves the identity fields of u. The password hash is left untouched.
func (s *Store) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := s.exec(ctx,
		`UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ? WHERE id = ?`,
		u.Username, u.Email, u.FirstName, u.LastName, u.ID,
	)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return s.UserByID(ctx, u.ID)
}

// DeleteUser removes the user together with their budgets and transactions.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
