package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/shared"
)

// Caller is the transport contract the fetchers depend on.
type Caller interface {
	Call(ctx context.Context, endpoint string) ([]byte, error)
}

// Client exposes one typed fetcher per backend capability.
type Client struct {
	caller Caller
	logger *log.Logger
}

// NewClient creates a [Client] over the given [Caller].
func NewClient(caller Caller, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{caller: caller, logger: shared.WithLogger(logger, "component", "fetcher")}
}

// Profile fetches the session owner's profile.
func (c *Client) Profile(ctx context.Context) Result[models.Profile] {
	return fetch(ctx, c, "/get-user-info", decodeProfile)
}

// ProfileByID fetches another user's profile.
func (c *Client) ProfileByID(ctx context.Context, subjectID string) Result[models.Profile] {
	return fetchByID(ctx, c, "/get-user-info-by-id/", subjectID, decodeProfile)
}

// History fetches the cached listening history of a subject, most recent first.
func (c *Client) History(ctx context.Context, subjectID string) Result[[]models.Track] {
	return fetchByID(ctx, c, "/get-user-listening-history-by-id/", subjectID, decodeHistory)
}

// FetchHistory pulls the most recent activity of a subject live from the upstream provider.
func (c *Client) FetchHistory(ctx context.Context, subjectID string) Result[[]models.Track] {
	return fetchByID(ctx, c, "/fetch-user-listening-history-by-id/", subjectID, decodeHistory)
}

// DiversityScore fetches the subject's genre diversity in [0,1].
func (c *Client) DiversityScore(ctx context.Context, subjectID string) Result[models.Score] {
	return fetchByID(ctx, c, "/get-user-diversity-score-by-id/", subjectID, decodeScore("diversity_score"))
}

// TasteScore fetches the subject's taste alignment in [0,1].
func (c *Client) TasteScore(ctx context.Context, subjectID string) Result[models.Score] {
	return fetchByID(ctx, c, "/get-user-taste-score-by-id/", subjectID, decodeScore("taste_score"))
}

// SongOfDay fetches the featured track. A null payload yields a nil value.
func (c *Client) SongOfDay(ctx context.Context) Result[*models.SongOfDay] {
	return fetch(ctx, c, "/get-song-of-the-day", decodeSongOfDay)
}

// Leaderboard fetches the bulk profiles and scores rows.
func (c *Client) Leaderboard(ctx context.Context) Result[models.LeaderboardData] {
	return fetch(ctx, c, "/get-leaderboard-data", decodeLeaderboard)
}

func fetchByID[T any](ctx context.Context, c *Client, prefix, subjectID string, decode func([]byte) (T, error)) Result[T] {
	if subjectID == "" {
		return Failure[T](unknownError(http.StatusBadRequest, "subject id is required"))
	}
	return fetch(ctx, c, prefix+url.PathEscape(subjectID), decode)
}

// fetch performs the call and decode. Nothing escapes it: panics and decode errors become 500 failures.
func fetch[T any](ctx context.Context, c *Client, endpoint string, decode func([]byte) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("fetcher panicked", "endpoint", endpoint, "panic", r)
			res = Failure[T](unknownError(http.StatusInternalServerError, fmt.Sprint(r)))
		}
	}()

	body, err := c.caller.Call(ctx, endpoint)
	if err != nil {
		var terr *TransportError
		if !errors.As(err, &terr) {
			terr = unknownError(http.StatusInternalServerError, err.Error())
		}
		c.logger.Debug("fetch failed", "endpoint", endpoint, "kind", terr.Kind, "status", terr.Status)
		return Failure[T](terr)
	}

	v, err := decode(body)
	if err != nil {
		c.logger.Warn("decode failed", "endpoint", endpoint, "err", err)
		return Failure[T](unknownError(http.StatusInternalServerError, fmt.Errorf("%w: %v", shared.ErrDecode, err).Error()))
	}

	return Success(v, http.StatusOK)
}

func decodeProfile(body []byte) (models.Profile, error) {
	var payload struct {
		UserInfo *models.Profile `json:"user_info"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Profile{}, err
	}
	if payload.UserInfo == nil {
		return models.Profile{}, fmt.Errorf("missing user_info")
	}
	return *payload.UserInfo, nil
}

func decodeHistory(body []byte) ([]models.Track, error) {
	var payload struct {
		History []models.Track `json:"user_listening_history"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.History == nil {
		return []models.Track{}, nil
	}
	return payload.History, nil
}

func decodeScore(field string) func([]byte) (models.Score, error) {
	return func(body []byte) (models.Score, error) {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil {
			return models.Score{}, err
		}

		var v *float64
		if raw, ok := payload[field]; ok {
			if err := json.Unmarshal(raw, &v); err != nil {
				return models.Score{}, fmt.Errorf("%s: %w", field, err)
			}
		}
		if v == nil {
			return models.Score{}, fmt.Errorf("missing %s", field)
		}
		return models.NewScore(*v), nil
	}
}

func decodeSongOfDay(body []byte) (*models.SongOfDay, error) {
	var payload struct {
		Song *models.SongOfDay `json:"song_of_the_day"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Song, nil
}

func decodeLeaderboard(body []byte) (models.LeaderboardData, error) {
	var payload models.LeaderboardData
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.LeaderboardData{}, err
	}
	return payload, nil
}
