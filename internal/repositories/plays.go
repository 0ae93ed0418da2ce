package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/shared"
)

// PlayRepository stores listening events.
//
// Pending plays have happened upstream but have not been pulled yet: they are hidden from [PlayRepository.History]
// until [PlayRepository.PullRecent] surfaces them.
type PlayRepository struct {
	db *sql.DB
}

// NewPlayRepository creates a new [PlayRepository] with the given database connection
func NewPlayRepository(db *sql.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// Add inserts a play.
func (r *PlayRepository) Add(ctx context.Context, play models.Play) error {
	if play.UserID == "" || strings.TrimSpace(play.Track.TrackName) == "" {
		return fmt.Errorf("%w: play needs a user and a track name", shared.ErrInvalidInput)
	}
	if play.PlayedAt.IsZero() {
		play.PlayedAt = time.Now()
	}

	artists, err := json.Marshal(play.Track.Artists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}
	genres, err := json.Marshal(play.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	query := `
		INSERT INTO plays (user_id, track_id, track_name, artists, album_name, album_image, external_url, genres, played_at, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		play.UserID,
		play.Track.ID,
		play.Track.TrackName,
		string(artists),
		play.Track.AlbumName,
		play.Track.AlbumImage,
		play.Track.ExternalURL,
		string(genres),
		play.PlayedAt.UTC(),
		play.Pending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}

	return nil
}

// History returns the user's pulled plays, most recent first.
func (r *PlayRepository) History(ctx context.Context, userID string, limit int) ([]models.Play, error) {
	query := `
		SELECT user_id, track_id, track_name, artists, album_name, album_image, external_url, genres, played_at, pending
		FROM plays
		WHERE user_id = ? AND pending = 0
		ORDER BY played_at DESC, id DESC
		LIMIT ?
	`
	return r.query(ctx, r.db, query, userID, limit)
}

// PullRecent returns the user's limit most recent plays, pending or not, and marks them pulled.
func (r *PlayRepository) PullRecent(ctx context.Context, userID string, limit int) ([]models.Play, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT user_id, track_id, track_name, artists, album_name, album_image, external_url, genres, played_at, pending
		FROM plays
		WHERE user_id = ?
		ORDER BY played_at DESC, id DESC
		LIMIT ?
	`
	plays, err := r.query(ctx, tx, query, userID, limit)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE plays SET pending = 0 WHERE user_id = ? AND pending = 1", userID); err != nil {
		return nil, fmt.Errorf("failed to mark plays pulled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pull: %w", err)
	}

	return plays, nil
}

// Genres returns the genre list of every pulled play of the user.
func (r *PlayRepository) Genres(ctx context.Context, userID string) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT genres FROM plays WHERE user_id = ? AND pending = 0", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan genres: %w", err)
		}

		var genres []string
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &genres); err != nil {
				return nil, fmt.Errorf("failed to decode genres: %w", err)
			}
		}
		out = append(out, genres)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *PlayRepository) query(ctx context.Context, q querier, query string, args ...any) ([]models.Play, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	plays := []models.Play{}
	for rows.Next() {
		play, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return plays, nil
}

func scanPlay(s scanner) (models.Play, error) {
	var (
		play                        models.Play
		artists, genres             string
		albumName, albumImage, link sql.NullString
	)

	err := s.Scan(
		&play.UserID,
		&play.Track.ID,
		&play.Track.TrackName,
		&artists,
		&albumName,
		&albumImage,
		&link,
		&genres,
		&play.PlayedAt,
		&play.Pending,
	)
	if err != nil {
		return models.Play{}, fmt.Errorf("failed to scan play: %w", err)
	}

	if err := json.Unmarshal([]byte(artists), &play.Track.Artists); err != nil {
		return models.Play{}, fmt.Errorf("failed to decode artists: %w", err)
	}
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &play.Genres); err != nil {
			return models.Play{}, fmt.Errorf("failed to decode genres: %w", err)
		}
	}

	play.Track.AlbumName = albumName.String
	play.Track.AlbumImage = albumImage.String
	play.Track.ExternalURL = link.String
	play.Track.PlayedAt = play.PlayedAt.UTC().Format(time.RFC3339)

	return play, nil
}
