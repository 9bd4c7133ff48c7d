package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const projectColumns = `id, name, timeline, export_settings, recording_defaults, created_at, modified_at`

func (r *SQLiteRepository) Create(ctx context.Context, p *Project) error {
	tl, exp, rec, err := marshalDocs(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, tl, exp, rec,
		p.CreatedAt.Format(time.RFC3339), p.ModifiedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row.Scan)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY modified_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(scan func(dest ...any) error) (*Project, error) {
	var p Project
	var tl, exp, rec []byte
	var createdAt, modifiedAt string

	err := scan(&p.ID, &p.Name, &tl, &exp, &rec, &createdAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tl, &p.Timeline); err != nil {
		return nil, fmt.Errorf("corrupt timeline document for project %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(exp, &p.ExportSettings); err != nil {
		return nil, fmt.Errorf("corrupt export settings for project %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(rec, &p.RecordingDefaults); err != nil {
		return nil, fmt.Errorf("corrupt recording defaults for project %s: %w", p.ID, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
	return &p, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *Project) error {
	tl, exp, rec, err := marshalDocs(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, timeline = ?, export_settings = ?, recording_defaults = ?, modified_at = ?
		WHERE id = ?
	`, p.Name, tl, exp, rec, p.ModifiedAt.Format(time.RFC3339), p.ID)
	return err
}

func (r *SQLiteRepository) Rename(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, modified_at = ? WHERE id = ?
	`, name, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func marshalDocs(p *Project) ([]byte, []byte, []byte, error) {
	tl, err := json.Marshal(p.Timeline)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal timeline: %w", err)
	}
	exp, err := json.Marshal(p.ExportSettings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal export settings: %w", err)
	}
	rec, err := json.Marshal(p.RecordingDefaults)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal recording defaults: %w", err)
	}
	return tl, exp, rec, nil
}
