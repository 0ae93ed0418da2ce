package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/repositories"
	"github.com/desertthunder/scorify/internal/shared"
)

const (
	// SessionCookie names the cookie holding the access token.
	SessionCookie = "scorify_session"
	// HistoryLimit caps the cached history returned per user.
	HistoryLimit = 50
	// FetchLimit is the size of the live-pulled slice.
	FetchLimit = 10

	defaultTokenTTL = time.Hour
)

// Options configures a [Backend].
type Options struct {
	TokenTTL time.Duration
	Logger   *log.Logger
	Now      func() time.Time
}

// Backend serves the score service contract over sqlite.
type Backend struct {
	users    *repositories.UserRepository
	plays    *repositories.PlayRepository
	sessions *repositories.SessionRepository
	songs    *repositories.SongRepository
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewBackend creates a [Backend] over a migrated database.
func NewBackend(db *sql.DB, opts Options) *Backend {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Backend{
		users:    repositories.NewUserRepository(db),
		plays:    repositories.NewPlayRepository(db),
		sessions: repositories.NewSessionRepository(db),
		songs:    repositories.NewSongRepository(db),
		ttl:      opts.TokenTTL,
		logger:   shared.WithLogger(opts.Logger, "component", "backend"),
		now:      opts.Now,
	}
}

// Register adds every backend route to r.
func (b *Backend) Register(r Router) {
	r.Handler(healthHandler{})

	r.Handle(http.MethodGet, "/login", http.HandlerFunc(b.login))
	r.Handle(http.MethodGet, "/refresh-user-token", http.HandlerFunc(b.refresh))

	r.Handle(http.MethodGet, "/get-user-info", b.authed(b.userInfo))
	r.Handle(http.MethodGet, "/get-user-info-by-id/{id}", b.authed(b.userInfoByID))
	r.Handle(http.MethodGet, "/get-user-listening-history-by-id/{id}", b.authed(b.history))
	r.Handle(http.MethodGet, "/fetch-user-listening-history-by-id/{id}", b.authed(b.fetchHistory))
	r.Handle(http.MethodGet, "/get-user-diversity-score-by-id/{id}", b.authed(b.diversityScore))
	r.Handle(http.MethodGet, "/get-user-taste-score-by-id/{id}", b.authed(b.tasteScore))
	r.Handle(http.MethodGet, "/get-song-of-the-day", b.authed(b.songOfTheDay))
	r.Handle(http.MethodGet, "/get-leaderboard-data", b.authed(b.leaderboard))
}

type healthHandler struct{}

func (healthHandler) Routes() []string { return []string{"GET /health"} }

func (healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authed resolves the session cookie before calling next.
//
// A missing or unknown cookie cannot be refreshed. An expired access token always asks for a refresh, even when the
// refresh itself is going to fail.
func (b *Backend) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := b.session(r)
		switch {
		case errors.Is(err, shared.ErrNoSession):
			jsonResponse(w, http.StatusUnauthorized, authResponse{Error: "Not authenticated"})
			return
		case err != nil:
			b.fail(w, r, err)
			return
		case s.Expired():
			jsonResponse(w, http.StatusUnauthorized, authResponse{Error: "Access token expired", NeedsRefresh: true})
			return
		}

		next(w, r.WithContext(withSession(r.Context(), s)))
	})
}

func (b *Backend) session(r *http.Request) (*repositories.Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, shared.ErrNoSession
	}
	return b.sessions.Get(r.Context(), cookie.Value)
}

func (b *Backend) setCookie(w http.ResponseWriter, s *repositories.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// fail maps repository errors onto status codes.
func (b *Backend) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		jsonResponse(w, http.StatusNotFound, errorResponse{Error: "User not found"})
	default:
		b.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		jsonResponse(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// login opens a session for ?user=<id>, or for the first registered user.
func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var (
		user *models.User
		err  error
	)

	if id := r.URL.Query().Get("user"); id != "" {
		user, err = b.users.Get(id)
	} else {
		var users []*models.User
		users, err = b.users.List(nil)
		if err == nil && len(users) == 0 {
			err = shared.ErrUserNotFound
		}
		if err == nil {
			user = users[0]
		}
	}
	if err != nil {
		b.fail(w, r, err)
		return
	}

	s, err := b.sessions.Create(r.Context(), user.ID(), b.ttl)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	b.setCookie(w, s)
	b.logger.Info("logged in", "user", user.ID())
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":        "User logged in",
		"logged_in":      true,
		"user_id":        user.ID(),
		"session_cookie": SessionCookie + "=" + s.Token.AccessToken,
	})
}

// refresh rotates the access token behind the session cookie.
func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	s, err := b.session(r)
	if errors.Is(err, shared.ErrNoSession) {
		jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "Refresh token not found"})
		return
	}
	if err != nil {
		b.fail(w, r, err)
		return
	}

	next, err := b.sessions.Rotate(r.Context(), s, b.ttl)
	if errors.Is(err, shared.ErrRefreshFailed) {
		jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "Refresh token not found"})
		return
	}
	if err != nil {
		b.fail(w, r, err)
		return
	}

	b.setCookie(w, next)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Access token refreshed"})
}

type image struct {
	URL string `json:"url"`
}

// providerProfile mirrors the upstream provider's user object.
type providerProfile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Images      []image `json:"images"`
}

func (b *Backend) userInfo(w http.ResponseWriter, r *http.Request) {
	s, _ := SessionFrom(r.Context())
	user, err := b.users.Get(s.UserID)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	info := providerProfile{ID: user.ID(), DisplayName: user.DisplayName(), Images: []image{}}
	if user.AvatarURL() != "" {
		info.Images = append(info.Images, image{URL: user.AvatarURL()})
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":       "User information retrieved",
		"user_info":     info,
		"logged_in":     true,
		"needs_refresh": false,
	})
}

// profileRow encodes a user as [id, name, picUrl] with a null picture when unset.
func profileRow(u *models.User) []any {
	var pic any
	if u.AvatarURL() != "" {
		pic = u.AvatarURL()
	}
	return []any{u.ID(), u.DisplayName(), pic}
}

func (b *Backend) userInfoByID(w http.ResponseWriter, r *http.Request) {
	user, err := b.users.Get(r.PathValue("id"))
	if err != nil {
		b.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user_info": [][]any{profileRow(user)}})
}

func (b *Backend) history(w http.ResponseWriter, r *http.Request) {
	b.writeHistory(w, r, "User listening history retrieved", b.plays.History)
}

func (b *Backend) fetchHistory(w http.ResponseWriter, r *http.Request) {
	b.writeHistory(w, r, "User listening history fetched", func(ctx context.Context, id string, _ int) ([]models.Play, error) {
		return b.plays.PullRecent(ctx, id, FetchLimit)
	})
}

func (b *Backend) writeHistory(w http.ResponseWriter, r *http.Request, message string, load func(context.Context, string, int) ([]models.Play, error)) {
	id := r.PathValue("id")
	if _, err := b.users.Get(id); err != nil {
		b.fail(w, r, err)
		return
	}

	plays, err := load(r.Context(), id, HistoryLimit)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	tracks := make([]models.Track, len(plays))
	for i, p := range plays {
		tracks[i] = p.Track
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":                message,
		"user_listening_history": tracks,
	})
}

func (b *Backend) diversityOf(ctx context.Context, userID string) (float64, error) {
	genres, err := b.plays.Genres(ctx, userID)
	if err != nil {
		return 0, err
	}
	return Diversity(genres), nil
}

// tasteOf aligns userID's diversity against every developer's.
func (b *Backend) tasteOf(ctx context.Context, userID string) (float64, error) {
	user, err := b.diversityOf(ctx, userID)
	if err != nil {
		return 0, err
	}

	devs, err := b.users.List(map[string]any{"developer": true})
	if err != nil {
		return 0, err
	}

	scores := make([]float64, 0, len(devs))
	for _, d := range devs {
		v, err := b.diversityOf(ctx, d.ID())
		if err != nil {
			return 0, err
		}
		scores = append(scores, v)
	}

	return Taste(user, scores), nil
}

func (b *Backend) diversityScore(w http.ResponseWriter, r *http.Request) {
	b.writeScore(w, r, "diversity_score", b.diversityOf)
}

func (b *Backend) tasteScore(w http.ResponseWriter, r *http.Request) {
	b.writeScore(w, r, "taste_score", b.tasteOf)
}

func (b *Backend) writeScore(w http.ResponseWriter, r *http.Request, field string, score func(context.Context, string) (float64, error)) {
	id := r.PathValue("id")
	if _, err := b.users.Get(id); err != nil {
		b.fail(w, r, err)
		return
	}

	v, err := score(r.Context(), id)
	if err != nil {
		b.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]float64{field: v})
}

// songOfTheDay answers null when no song was chosen for today.
func (b *Backend) songOfTheDay(w http.ResponseWriter, r *http.Request) {
	song, err := b.songs.Get(r.Context(), b.now())
	if err != nil {
		b.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"song_of_the_day": song})
}

// leaderboard ranks every user by taste score; ordering is left to the client.
func (b *Backend) leaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := b.users.List(nil)
	if err != nil {
		b.fail(w, r, err)
		return
	}

	profiles := make([][]any, 0, len(users))
	scores := make([]models.ScoreRow, 0, len(users))
	for _, u := range users {
		taste, err := b.tasteOf(r.Context(), u.ID())
		if err != nil {
			b.fail(w, r, err)
			return
		}
		profiles = append(profiles, profileRow(u))
		scores = append(scores, models.ScoreRow{SubjectID: u.ID(), Value: taste})
	}

	jsonResponse(w, http.StatusOK, map[string]any{"profiles": profiles, "scores": scores})
}
