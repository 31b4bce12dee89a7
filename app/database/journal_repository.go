package database

import (
	"database/sql"
	"fmt"
)

// JournalStore handles database operations for journals
type JournalStore struct {
	db *DB
}

var _ JournalRepository = (*JournalStore)(nil)

func NewJournalStore(db *DB) *JournalStore {
	return &JournalStore{db: db}
}

// UpsertJournal inserts a journal from the catalog or updates its mutable
// catalog fields. Journals are never deleted.
func (r *JournalStore) UpsertJournal(seed JournalSeed) (int64, error) {
	_, err := r.db.Exec(`
		INSERT INTO journals (name, feed_url, feed_type, category, needs_scraping, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			feed_type = excluded.feed_type,
			category = excluded.category,
			needs_scraping = excluded.needs_scraping,
			is_active = excluded.is_active
	`, seed.Name, seed.FeedURL, seed.FeedType, seed.Category, seed.NeedsScraping, seed.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert journal: %w", err)
	}

	var id int64
	err = r.db.QueryRow(`SELECT id FROM journals WHERE name = ?`, seed.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get journal id: %w", err)
	}

	return id, nil
}

const journalColumns = `id, name, feed_url, feed_type, category, needs_scraping, is_active, last_checked_at, created_at`

func scanJournal(row interface{ Scan(...any) error }) (*Journal, error) {
	var j Journal
	err := row.Scan(&j.ID, &j.Name, &j.FeedURL, &j.FeedType, &j.Category,
		&j.NeedsScraping, &j.IsActive, &j.LastCheckedAt, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JournalStore) GetJournalByID(id int64) (*Journal, error) {
	j, err := scanJournal(r.db.QueryRow(`SELECT `+journalColumns+` FROM journals WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal by id: %w", err)
	}
	return j, nil
}

func (r *JournalStore) GetJournalByName(name string) (*Journal, error) {
	j, err := scanJournal(r.db.QueryRow(`SELECT `+journalColumns+` FROM journals WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal by name: %w", err)
	}
	return j, nil
}

func (r *JournalStore) GetActiveJournals() ([]Journal, error) {
	rows, err := r.db.Query(`SELECT ` + journalColumns + ` FROM journals WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active journals: %w", err)
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

func (r *JournalStore) GetJournalsByCategory() (map[string][]Journal, error) {
	rows, err := r.db.Query(`SELECT ` + journalColumns + ` FROM journals WHERE is_active = 1 ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get journals by category: %w", err)
	}
	defer rows.Close()

	categorized := make(map[string][]Journal)
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		categorized[j.Category] = append(categorized[j.Category], *j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}

	return categorized, nil
}

func (r *JournalStore) UpdateLastChecked(journalID int64) error {
	_, err := r.db.Exec(`UPDATE journals SET last_checked_at = CURRENT_TIMESTAMP WHERE id = ?`, journalID)
	if err != nil {
		return fmt.Errorf("failed to update last checked: %w", err)
	}
	return nil
}

func (r *JournalStore) SetJournalActive(journalID int64, active bool) error {
	_, err := r.db.Exec(`UPDATE journals SET is_active = ? WHERE id = ?`, active, journalID)
	if err != nil {
		return fmt.Errorf("failed to set journal active status: %w", err)
	}
	return nil
}

func (r *JournalStore) GetJournalCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM journals WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get journal count: %w", err)
	}
	return count, nil
}
