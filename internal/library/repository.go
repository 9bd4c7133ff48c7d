package library

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateVideo(ctx context.Context, v *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	GetVideoByPath(ctx context.Context, path string) (*Video, error)
	ListVideos(ctx context.Context) ([]*Video, error)
	DeleteVideo(ctx context.Context, id string) error
	UpdateVideoTrim(ctx context.Context, id string, trimStart, trimEnd float64) error
	UpdateVideoMissing(ctx context.Context, id string, missing bool) error
	UpdateVideoThumbnail(ctx context.Context, id, thumbnailPath string) error

	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int, message string) error
	UpdateJobOutput(ctx context.Context, id, outputPath string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const videoColumns = `id, file_path, name, duration, width, height, fps, trim_start, trim_end, thumbnail_path, missing, created_at`

func (r *SQLiteRepository) CreateVideo(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.FilePath, v.Name, v.Duration, v.Width, v.Height, v.FrameRate,
		v.TrimStart, v.TrimEnd, nullString(v.ThumbnailPath), boolToInt(v.Missing),
		v.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func (r *SQLiteRepository) GetVideoByPath(ctx context.Context, path string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE file_path = ?`, path)
	return scanVideo(row)
}

func scanVideo(row *sql.Row) (*Video, error) {
	var v Video
	var missing int
	var createdAt string
	var thumbnail sql.NullString

	err := row.Scan(&v.ID, &v.FilePath, &v.Name, &v.Duration, &v.Width, &v.Height,
		&v.FrameRate, &v.TrimStart, &v.TrimEnd, &thumbnail, &missing, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v.ThumbnailPath = thumbnail.String
	v.Missing = missing == 1
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &v, nil
}

func (r *SQLiteRepository) ListVideos(ctx context.Context) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		var v Video
		var missing int
		var createdAt string
		var thumbnail sql.NullString

		if err := rows.Scan(&v.ID, &v.FilePath, &v.Name, &v.Duration, &v.Width, &v.Height,
			&v.FrameRate, &v.TrimStart, &v.TrimEnd, &thumbnail, &missing, &createdAt); err != nil {
			return nil, err
		}
		v.ThumbnailPath = thumbnail.String
		v.Missing = missing == 1
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		videos = append(videos, &v)
	}
	return videos, rows.Err()
}

func (r *SQLiteRepository) DeleteVideo(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpdateVideoTrim(ctx context.Context, id string, trimStart, trimEnd float64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE videos SET trim_start = ?, trim_end = ? WHERE id = ?",
		trimStart, trimEnd, id)
	return err
}

func (r *SQLiteRepository) UpdateVideoMissing(ctx context.Context, id string, missing bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE videos SET missing = ? WHERE id = ?", boolToInt(missing), id)
	return err
}

func (r *SQLiteRepository) UpdateVideoThumbnail(ctx context.Context, id, thumbnailPath string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE videos SET thumbnail_path = ? WHERE id = ?", thumbnailPath, id)
	return err
}

const jobColumns = `id, type, status, video_id, project_id, progress, message, error, output_path, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.VideoID), nullString(j.ProjectID),
		j.Progress, nullString(j.Message), nullString(j.Error), nullString(j.OutputPath),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	var j Job
	var videoID, projectID, message, errMsg, outputPath sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &videoID, &projectID, &j.Progress,
		&message, &errMsg, &outputPath, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.VideoID = videoID.String
	j.ProjectID = projectID.String
	j.Message = message.String
	j.Error = errMsg.String
	j.OutputPath = outputPath.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var videoID, projectID, message, errMsg, outputPath sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &videoID, &projectID, &j.Progress,
			&message, &errMsg, &outputPath, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.VideoID = videoID.String
		j.ProjectID = projectID.String
		j.Message = message.String
		j.Error = errMsg.String
		j.OutputPath = outputPath.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, message = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, nullString(message), id)
	return err
}

func (r *SQLiteRepository) UpdateJobOutput(ctx context.Context, id, outputPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET output_path = ?, updated_at = datetime('now') WHERE id = ?
	`, outputPath, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
