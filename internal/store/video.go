package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nomadways/apinomad/internal/model"
)

type VideoStore struct {
	db *sql.DB
}

func NewVideoStore(db *sql.DB) *VideoStore {
	return &VideoStore{db: db}
}

func scanVideo(scanner interface{ Scan(...any) error }) (*model.Video, error) {
	var v model.Video
	err := scanner.Scan(
		&v.ID, &v.OwnerID, &v.FilePath, &v.Duration, &v.Width, &v.Height,
		&v.Size, &v.Title, &v.Description, &v.IsAgreedTermsUse,
		&v.CreatedAt, &v.DeletedAt, &v.ActivatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const videoCols = `id, owner_id, file_path, duration, width, height, size, title, description, is_agreed_terms_use, created_at, deleted_at, activated_at`

func (s *VideoStore) Create(ownerID int64, filePath string, width, height, size int64, duration float64, title, description string, agreedTerms bool) (*model.Video, error) {
	result, err := s.db.Exec(
		`INSERT INTO videos (owner_id, file_path, width, height, size, duration, title, description, is_agreed_terms_use)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, filePath, width, height, size, duration, title, description, agreedTerms,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VideoStore) GetByID(id int64) (*model.Video, error) {
	row := s.db.QueryRow(`SELECT `+videoCols+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	if err := s.attachGenres(v); err != nil {
		return nil, err
	}
	return v, nil
}

// VideoFilter narrows List. The derived-state filters are evaluated in SQL
// against the sentinel markers instead of scanning full rows.
type VideoFilter struct {
	OwnerID        int64 // 0 = any owner
	OnlyDeleted    bool
	OnlyActive     bool
	ExcludeDeleted bool
}

func (s *VideoStore) List(filter VideoFilter) ([]model.Video, error) {
	query := `SELECT ` + videoCols + ` FROM videos WHERE 1=1`
	var args []any

	if filter.OwnerID != 0 {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.OnlyDeleted {
		query += ` AND deleted_at >= created_at`
	}
	if filter.ExcludeDeleted {
		query += ` AND deleted_at < created_at`
	}
	if filter.OnlyActive {
		query += ` AND activated_at >= created_at AND deleted_at < created_at`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range videos {
		if err := s.attachGenres(&videos[i]); err != nil {
			return nil, err
		}
	}
	return videos, nil
}

// UpdateMeta changes the caller-editable fields. File and owner are not
// accepted here; they are fixed at upload.
func (s *VideoStore) UpdateMeta(id int64, title, description string) (*model.Video, error) {
	_, err := s.db.Exec(
		`UPDATE videos SET title = ?, description = ? WHERE id = ?`,
		title, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	return s.GetByID(id)
}

// SetActivated stamps the activation marker. Passing model.SentinelPast
// deactivates the video.
func (s *VideoStore) SetActivated(id int64, at time.Time) (*model.Video, error) {
	_, err := s.db.Exec(`UPDATE videos SET activated_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("set video activated: %w", err)
	}
	return s.GetByID(id)
}

// SetDeleted stamps the soft-delete marker.
func (s *VideoStore) SetDeleted(id int64, at time.Time) (*model.Video, error) {
	_, err := s.db.Exec(`UPDATE videos SET deleted_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("set video deleted: %w", err)
	}
	return s.GetByID(id)
}

func (s *VideoStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

func (s *VideoStore) AddGenre(videoID, genreID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO video_genres (video_id, genre_id) VALUES (?, ?)`,
		videoID, genreID,
	)
	if err != nil {
		return fmt.Errorf("add video genre: %w", err)
	}
	return nil
}

func (s *VideoStore) RemoveGenre(videoID, genreID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM video_genres WHERE video_id = ? AND genre_id = ?`,
		videoID, genreID,
	)
	if err != nil {
		return fmt.Errorf("remove video genre: %w", err)
	}
	return nil
}

func (s *VideoStore) attachGenres(v *model.Video) error {
	rows, err := s.db.Query(
		`SELECT g.id, g.label, g.description FROM genres g
		 JOIN video_genres vg ON vg.genre_id = g.id
		 WHERE vg.video_id = ? ORDER BY g.label`,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("video genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Label, &g.Description); err != nil {
			return fmt.Errorf("scan genre: %w", err)
		}
		v.Genres = append(v.Genres, g)
	}
	return rows.Err()
}
