package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/models"
)

const subjectColumns = `CAST(id AS CHAR) AS id, relative_path, title, caption, alt_text, created_at`

// MySQLStore keeps subjects and cached locations in MySQL/MariaDB. The schema
// lives in the migrations package.
type MySQLStore struct {
	db *sqlx.DB
}

func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// ConnectMySQL opens a pool for dsn. Time parsing is forced on so created_at
// scans into time.Time.
func ConnectMySQL(ctx context.Context, dsn string) (*sqlx.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (s *MySQLStore) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return nil, apperrors.ErrNotFound
	}
	return s.getOne(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
}

func (s *MySQLStore) FindByRelativePath(ctx context.Context, relativePath string) (*models.Subject, error) {
	return s.getOne(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE relative_path = ? ORDER BY id LIMIT 1`, relativePath)
}

// FindFirstMatching relies on '\' being the default LIKE escape character.
func (s *MySQLStore) FindFirstMatching(ctx context.Context, pattern PathPattern) (*models.Subject, error) {
	return s.getOne(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE relative_path LIKE ? ORDER BY id LIMIT 1`, pattern.SQL())
}

func (s *MySQLStore) getOne(ctx context.Context, query string, args ...any) (*models.Subject, error) {
	var subject models.Subject
	if err := s.db.GetContext(ctx, &subject, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

func (s *MySQLStore) ListSubjects(ctx context.Context) ([]*models.Subject, error) {
	var subjects []*models.Subject
	if err := s.db.SelectContext(ctx, &subjects, `SELECT `+subjectColumns+` FROM subjects ORDER BY id`); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (s *MySQLStore) SaveSubject(ctx context.Context, subject *models.Subject) (string, error) {
	if subject == nil || subject.RelativePath == "" {
		return "", apperrors.ErrInvalidInput
	}
	created := subject.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	if subject.ID != "" {
		if _, err := strconv.ParseUint(subject.ID, 10, 64); err != nil {
			return "", fmt.Errorf("%w: subject id must be numeric", apperrors.ErrInvalidInput)
		}
		_, err := s.db.ExecContext(ctx, `INSERT INTO subjects (id, relative_path, title, caption, alt_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE relative_path = VALUES(relative_path), title = VALUES(title),
			caption = VALUES(caption), alt_text = VALUES(alt_text)`,
			subject.ID, subject.RelativePath, subject.Title, subject.Caption, subject.AltText, created,
		)
		if err != nil {
			return "", err
		}
		return subject.ID, nil
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO subjects (relative_path, title, caption, alt_text, created_at)
	VALUES (?, ?, ?, ?, ?)`,
		subject.RelativePath, subject.Title, subject.Caption, subject.AltText, created,
	)
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *MySQLStore) GetLocation(ctx context.Context, subjectID string) (string, error) {
	var place string
	err := s.db.GetContext(ctx, &place, `SELECT place_name FROM subject_locations WHERE subject_id = ?`, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	if place == "" {
		return "", apperrors.ErrNotFound
	}
	return place, nil
}

func (s *MySQLStore) PutLocation(ctx context.Context, subjectID, placeName string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO subject_locations (subject_id, place_name) VALUES (?, ?)
	ON DUPLICATE KEY UPDATE place_name = VALUES(place_name)`, subjectID, placeName)
	return err
}

func (s *MySQLStore) ClearLocation(ctx context.Context, subjectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subject_locations WHERE subject_id = ?`, subjectID)
	return err
}

func (s *MySQLStore) ClearAllLocations(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subject_locations`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
