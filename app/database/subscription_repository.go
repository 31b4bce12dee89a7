package database

import (
	"database/sql"
	"fmt"
)

// SubscriptionStore handles the user-journal subscription relation
type SubscriptionStore struct {
	db *DB
}

var _ SubscriptionRepository = (*SubscriptionStore)(nil)

func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// ToggleSubscription flips the subscription. Unsubscribing deactivates the
// row instead of deleting it, so re-subscribing is idempotent.
func (r *SubscriptionStore) ToggleSubscription(userID, journalID int64) (bool, error) {
	var id int64
	var active bool
	err := r.db.QueryRow(`
		SELECT id, is_active FROM subscriptions WHERE user_id = ? AND journal_id = ?
	`, userID, journalID).Scan(&id, &active)

	if err == sql.ErrNoRows {
		_, err = r.db.Exec(`
			INSERT INTO subscriptions (user_id, journal_id, is_active) VALUES (?, ?, 1)
		`, userID, journalID)
		if err != nil {
			return false, fmt.Errorf("failed to create subscription: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}

	_, err = r.db.Exec(`UPDATE subscriptions SET is_active = ? WHERE id = ?`, !active, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle subscription: %w", err)
	}

	return !active, nil
}

func (r *SubscriptionStore) IsSubscribed(userID, journalID int64) (bool, error) {
	var active bool
	err := r.db.QueryRow(`
		SELECT is_active FROM subscriptions WHERE user_id = ? AND journal_id = ?
	`, userID, journalID).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return active, nil
}

// GetSubscribers returns users to notify for a journal. Users who have not
// completed onboarding never receive content.
func (r *SubscriptionStore) GetSubscribers(journalID int64) ([]User, error) {
	rows, err := r.db.Query(`
		SELECT `+prefixedUserColumns("u")+`
		FROM users u
		JOIN subscriptions s ON s.user_id = u.id
		WHERE s.journal_id = ?
		  AND s.is_active = 1
		  AND u.onboarded = 1
	`, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func (r *SubscriptionStore) GetUserJournals(userID int64) ([]Journal, error) {
	rows, err := r.db.Query(`
		SELECT `+prefixedJournalColumns("j")+`
		FROM journals j
		JOIN subscriptions s ON s.journal_id = j.id
		WHERE s.user_id = ?
		  AND s.is_active = 1
		ORDER BY j.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user journals: %w", err)
	}
	defer rows.Close()

	var journals []Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		journals = append(journals, *j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}

	return journals, nil
}

func prefixedUserColumns(alias string) string {
	return alias + ".id, " + alias + ".telegram_id, " + alias + ".username, " +
		alias + ".first_name, " + alias + ".language, " + alias + ".education_level, " +
		alias + ".specialty, " + alias + ".education_year, " + alias + ".onboarded, " +
		alias + ".is_admin, " + alias + ".created_at, " + alias + ".updated_at"
}

func prefixedJournalColumns(alias string) string {
	return alias + ".id, " + alias + ".name, " + alias + ".feed_url, " +
		alias + ".feed_type, " + alias + ".category, " + alias + ".needs_scraping, " +
		alias + ".is_active, " + alias + ".last_checked_at, " + alias + ".created_at"
}
