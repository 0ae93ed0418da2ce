package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/scorify/internal/models"
)

// DayFormat keys the song of the day table.
const DayFormat = "2006-01-02"

// SongRepository stores one featured track per calendar day.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Set features song on day, replacing any earlier choice.
func (r *SongRepository) Set(ctx context.Context, day time.Time, song models.SongOfDay) error {
	artists, err := json.Marshal(song.Artists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}

	query := `
		INSERT INTO song_of_the_day (day, track_name, artists, album_name, album_image, external_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			track_name = excluded.track_name,
			artists = excluded.artists,
			album_name = excluded.album_name,
			album_image = excluded.album_image,
			external_url = excluded.external_url
	`

	_, err = r.db.ExecContext(ctx, query, day.Format(DayFormat), song.TrackName, string(artists), song.AlbumName, song.AlbumImage, song.ExternalURL)
	if err != nil {
		return fmt.Errorf("failed to store song of the day: %w", err)
	}
	return nil
}

// Get returns the song featured on day, or nil when none was chosen.
func (r *SongRepository) Get(ctx context.Context, day time.Time) (*models.SongOfDay, error) {
	query := `
		SELECT track_name, artists, album_name, album_image, external_url
		FROM song_of_the_day
		WHERE day = ?
	`

	var (
		song                        models.SongOfDay
		artists                     string
		albumName, albumImage, link sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, day.Format(DayFormat)).Scan(&song.TrackName, &artists, &albumName, &albumImage, &link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song of the day: %w", err)
	}

	if err := json.Unmarshal([]byte(artists), &song.Artists); err != nil {
		return nil, fmt.Errorf("failed to decode artists: %w", err)
	}
	song.AlbumName = albumName.String
	song.AlbumImage = albumImage.String
	song.ExternalURL = link.String

	return &song, nil
}
