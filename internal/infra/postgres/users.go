package postgres

import (
	"context"
	"fmt"

	"quizboard-service/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = s.now()
	}
	row := newUserRow(*user)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isIntegrityViolation(err) {
			return domain.NewValidationError("username", "A user with this username already exists.")
		}
		return fmt.Errorf("create user: %w", err)
	}
	user.ID = row.ID
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.id = ?", id).Scan(ctx)
	if isNoRows(err) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return row.toDomain(), nil
}

// GetUserByUsername matches the username exactly.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.username = ?", username).Scan(ctx)
	if isNoRows(err) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	ok, err := s.db.NewSelect().Model((*userRow)(nil)).Where("lower(u.username) = lower(?)", username).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return ok, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	ok, err := s.db.NewSelect().Model((*userRow)(nil)).Where("lower(u.email) = lower(?)", email).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return ok, nil
}
