package database

import (
	"database/sql"
	"fmt"
)

// UserStore handles database operations for users
type UserStore struct {
	db *DB
}

var _ UserRepository = (*UserStore)(nil)

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, telegram_id, username, first_name, language, education_level, specialty, education_year, onboarded, is_admin, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.Language,
		&u.EducationLevel, &u.Specialty, &u.EducationYear, &u.Onboarded, &u.IsAdmin,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserStore) GetOrCreateUser(telegramID int64, username, firstName string) (*User, error) {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO users (telegram_id, username, first_name)
		VALUES (?, ?, ?)
	`, telegramID, username, firstName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := r.GetUser(telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user missing after insert: %d", telegramID)
	}
	return user, nil
}

func (r *UserStore) GetUser(telegramID int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateUserProfile applies the patch's non-nil fields. Returns the updated
// user, or nil if the user does not exist.
func (r *UserStore) UpdateUserProfile(telegramID int64, patch ProfilePatch) (*User, error) {
	set := "updated_at = CURRENT_TIMESTAMP"
	args := []any{}

	if patch.Language != nil {
		set += ", language = ?"
		args = append(args, *patch.Language)
	}
	if patch.EducationLevel != nil {
		set += ", education_level = ?"
		args = append(args, *patch.EducationLevel)
	}
	if patch.Specialty != nil {
		set += ", specialty = ?"
		args = append(args, *patch.Specialty)
	}
	if patch.EducationYear != nil {
		set += ", education_year = ?"
		args = append(args, *patch.EducationYear)
	}
	if patch.Onboarded != nil {
		set += ", onboarded = ?"
		args = append(args, *patch.Onboarded)
	}

	args = append(args, telegramID)
	_, err := r.db.Exec(`UPDATE users SET `+set+` WHERE telegram_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	return r.GetUser(telegramID)
}

func (r *UserStore) GetUserCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE onboarded = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count, nil
}
