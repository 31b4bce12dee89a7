package database

import (
	"database/sql"
	"fmt"
)

// DeliveryStore is the ledger of what was sent to whom
type DeliveryStore struct {
	db *DB
}

var _ DeliveryRepository = (*DeliveryStore)(nil)

func NewDeliveryStore(db *DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

func (r *DeliveryStore) WasDelivered(userID, articleID int64) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM deliveries WHERE user_id = ? AND article_id = ? LIMIT 1
	`, userID, articleID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check delivery: %w", err)
	}
	return true, nil
}

func (r *DeliveryStore) MarkDelivered(userID, articleID int64, content string) error {
	_, err := r.db.Exec(`
		INSERT INTO deliveries (user_id, article_id, content) VALUES (?, ?, ?)
	`, userID, articleID, content)
	if err != nil {
		return fmt.Errorf("failed to mark delivered: %w", err)
	}
	return nil
}

func (r *DeliveryStore) GetDelivery(userID, articleID int64) (*Delivery, error) {
	var d Delivery
	err := r.db.QueryRow(`
		SELECT id, user_id, article_id, content, sent_at
		FROM deliveries
		WHERE user_id = ? AND article_id = ?
		ORDER BY sent_at DESC, id DESC
		LIMIT 1
	`, userID, articleID).Scan(&d.ID, &d.UserID, &d.ArticleID, &d.Content, &d.SentAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return &d, nil
}

func (r *DeliveryStore) GetUndeliveredArticles(userID int64) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE journal_id IN (
			SELECT journal_id FROM subscriptions WHERE user_id = ? AND is_active = 1
		)
		AND id NOT IN (
			SELECT article_id FROM deliveries WHERE user_id = ?
		)
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`, userID, userID, UndeliveredLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get undelivered articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *DeliveryStore) GetDeliveryCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM deliveries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get delivery count: %w", err)
	}
	return count, nil
}
