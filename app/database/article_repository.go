package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
)

// ArticleStore handles database operations for articles
type ArticleStore struct {
	db *DB
}

var _ ArticleRepository = (*ArticleStore)(nil)

func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// HashLink produces the dedup key for an article link.
func HashLink(link string) string {
	normalized := strings.TrimSuffix(strings.TrimSpace(link), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// CreateArticle inserts the article keyed by its link hash. Duplicate links,
// including concurrent ones racing from parallel journal checks, resolve to
// the already stored article with created=false; the unique index is the
// arbiter, no pre-locking.
func (r *ArticleStore) CreateArticle(journalID int64, article NewArticle) (*Article, bool, error) {
	linkHash := HashLink(article.Link)

	var abstract sql.NullString
	if article.Abstract != "" {
		abstract = sql.NullString{String: article.Abstract, Valid: true}
	}

	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO articles
			(journal_id, title, link, link_hash, abstract, authors, doi, volume, issue, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, journalID, article.Title, article.Link, linkHash, abstract,
		article.Authors, article.DOI, article.Volume, article.Issue, article.PublishedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	stored, err := r.getByHash(linkHash)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("article missing after insert: %s", article.Link)
	}

	return stored, affected > 0, nil
}

const articleColumns = `id, journal_id, title, link, link_hash, COALESCE(abstract, ''), authors, doi, volume, issue, published_at, fetched_at`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.JournalID, &a.Title, &a.Link, &a.LinkHash, &a.Abstract,
		&a.Authors, &a.DOI, &a.Volume, &a.Issue, &a.PublishedAt, &a.FetchedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleStore) getByHash(linkHash string) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE link_hash = ?`, linkHash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by hash: %w", err)
	}
	return a, nil
}

func (r *ArticleStore) ArticleExists(link string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM articles WHERE link_hash = ?`, HashLink(link)).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return true, nil
}

func (r *ArticleStore) GetArticleByLink(link string) (*Article, error) {
	return r.getByHash(HashLink(link))
}

func (r *ArticleStore) GetArticleByID(id int64) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by id: %w", err)
	}
	return a, nil
}

// FillAbstract records a scraped abstract, but never overwrites one that is
// already known.
func (r *ArticleStore) FillAbstract(articleID int64, abstract string) error {
	if abstract == "" {
		return nil
	}
	_, err := r.db.Exec(`
		UPDATE articles SET abstract = ?
		WHERE id = ? AND (abstract IS NULL OR abstract = '')
	`, abstract, articleID)
	if err != nil {
		return fmt.Errorf("failed to fill abstract: %w", err)
	}
	return nil
}

func (r *ArticleStore) GetLatestArticles(journalID int64, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE journal_id = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`, journalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func collectArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleStore) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
