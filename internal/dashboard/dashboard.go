package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scorify/internal/history"
	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/pagination"
	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAlreadyMounted = errors.New("dashboard already mounted")
	ErrFetchInFlight  = errors.New("fetch already in progress")
	ErrNotReady       = errors.New("dashboard is not ready")
	ErrRedirect       = errors.New("redirect to login required")
)

// Status is the orchestrator's lifecycle state.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Redirecting
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Redirecting:
		return "redirecting"
	default:
		return "idle"
	}
}

// Fetcher is the set of backend capabilities the dashboard consumes. [*services.Client] implements it.
type Fetcher interface {
	Profile(ctx context.Context) services.Result[models.Profile]
	ProfileByID(ctx context.Context, subjectID string) services.Result[models.Profile]
	History(ctx context.Context, subjectID string) services.Result[[]models.Track]
	FetchHistory(ctx context.Context, subjectID string) services.Result[[]models.Track]
	DiversityScore(ctx context.Context, subjectID string) services.Result[models.Score]
	TasteScore(ctx context.Context, subjectID string) services.Result[models.Score]
	SongOfDay(ctx context.Context) services.Result[*models.SongOfDay]
	Leaderboard(ctx context.Context) services.Result[models.LeaderboardData]
}

// Options configures an [Orchestrator].
type Options struct {
	Subject   string        // subject to view; empty means the session owner
	LoginURL  string        // used when an identity failure carries no navigation of its own
	LoadDelay time.Duration // pause before the first fetch so the loading indicator is seen
	Layout    pagination.Layout
	Logger    *log.Logger
	Updates   chan<- ProgressUpdate // optional
}

// Orchestrator owns the dashboard view state for one mount.
type Orchestrator struct {
	fetcher   Fetcher
	loginURL  string
	loadDelay time.Duration
	logger    *log.Logger
	updates   chan<- ProgressUpdate

	mounted  atomic.Bool
	fetching atomic.Bool

	mu         sync.Mutex
	generation uint64
	subjectID  string
	status     Status
	owner      models.Profile
	subject    models.Profile
	history    []models.Track
	historyErr *services.TransportError
	diversity  models.Score
	taste      models.Score
	song       *models.SongOfDay
	navigation services.Navigation
	engine     *pagination.Engine
}

// New creates an idle [Orchestrator].
func New(fetcher Fetcher, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Layout == (pagination.Layout{}) {
		opts.Layout = pagination.DefaultLayout()
	}

	return &Orchestrator{
		fetcher:   fetcher,
		loginURL:  opts.LoginURL,
		loadDelay: opts.LoadDelay,
		logger:    shared.WithLogger(opts.Logger, "component", "dashboard"),
		updates:   opts.Updates,
		subjectID: opts.Subject,
		engine:    pagination.NewEngine(opts.Layout),
	}
}

// Load runs the mount sequence. Only the first call on an Orchestrator does anything; later calls return
// [ErrAlreadyMounted].
//
// A failure to resolve the session owner leaves the view in [Redirecting] and returns an error wrapping both
// [ErrRedirect] and the underlying [*services.TransportError]. Every other failure degrades a single field.
func (o *Orchestrator) Load(ctx context.Context) error {
	if !o.mounted.CompareAndSwap(false, true) {
		return ErrAlreadyMounted
	}

	o.mu.Lock()
	subjectID := o.subjectID
	o.mu.Unlock()

	return o.load(ctx, o.begin(subjectID), subjectID)
}

// Navigate supersedes the current view with the dashboard of subjectID. Results still in flight for the
// previous view are discarded when they arrive.
func (o *Orchestrator) Navigate(ctx context.Context, subjectID string) error {
	o.mounted.Store(true)
	return o.load(ctx, o.begin(subjectID), subjectID)
}

// begin resets the view for a new generation and returns it.
func (o *Orchestrator) begin(subjectID string) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.subjectID = subjectID
	o.status = Loading
	o.owner = models.Profile{}
	o.subject = models.Profile{}
	o.history = nil
	o.historyErr = nil
	o.diversity = models.Score{}
	o.taste = models.Score{}
	o.song = nil
	o.navigation = services.Navigation{}
	o.engine.SetItemCount(0)
	o.engine.First()

	return o.generation
}

func (o *Orchestrator) load(ctx context.Context, gen uint64, subjectID string) error {
	logger := o.logger.With("generation", gen, "subject", subjectID)
	o.emit(waitingUpdate(gen))

	if o.loadDelay > 0 {
		timer := time.NewTimer(o.loadDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	o.emit(profilesUpdate(gen, subjectID))
	owner, subject, err := o.resolveProfiles(ctx, subjectID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var terr *services.TransportError
		if !errors.As(err, &terr) {
			return err
		}
		logger.Warn("identity fetch failed", "kind", terr.Kind, "status", terr.Status, "message", terr.Message)
		o.redirect(gen, terr)
		return fmt.Errorf("%w: %w", ErrRedirect, terr)
	}

	if !o.apply(gen, func() {
		o.owner = owner
		o.subject = subject
	}) {
		logger.Debug("dropping stale profiles")
		return nil
	}

	o.emit(historyUpdate(gen, subject.DisplayName))
	hist := o.fetcher.History(ctx, subject.SubjectID)
	if !hist.OK() {
		logger.Warn("history unavailable", "status", hist.Status, "message", hist.Err.Message)
	}
	if !o.apply(gen, func() {
		o.history = hist.Value
		o.historyErr = hist.Err
		o.engine.SetItemCount(len(o.history))
	}) {
		return nil
	}

	o.emit(detailsUpdate(gen, len(hist.Value)))
	o.loadDetails(ctx, gen, subject.SubjectID)

	if o.apply(gen, func() { o.status = Ready }) {
		logger.Debug("dashboard ready", "tracks", len(hist.Value))
		o.emit(readyUpdate(gen))
	}
	return nil
}

// resolveProfiles fetches the session owner and, when viewing someone else, the subject concurrently.
// Only the owner fetch is fatal; a failed subject profile falls back to the bare identifier.
func (o *Orchestrator) resolveProfiles(ctx context.Context, subjectID string) (owner, subject models.Profile, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res := o.fetcher.Profile(gctx)
		if !res.OK() {
			return res.Err
		}
		owner = res.Value
		return nil
	})

	viewingOther := subjectID != ""
	if viewingOther {
		subject = models.Profile{SubjectID: subjectID}
		g.Go(func() error {
			res := o.fetcher.ProfileByID(gctx, subjectID)
			if !res.OK() {
				o.logger.Warn("subject profile unavailable", "subject", subjectID, "status", res.Status)
				return nil
			}
			if res.Value.SubjectID != "" {
				subject = res.Value
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.Profile{}, models.Profile{}, err
	}

	if !viewingOther || subjectID == owner.SubjectID {
		subject = owner
	}
	return owner, subject, nil
}

// loadDetails fetches the independent fields. Each failure only leaves its own field unavailable.
func (o *Orchestrator) loadDetails(ctx context.Context, gen uint64, subjectID string) {
	var g errgroup.Group

	g.Go(func() error {
		res := o.fetcher.DiversityScore(ctx, subjectID)
		o.degrade("diversity score", res.Err)
		o.apply(gen, func() { o.diversity = res.Value })
		return nil
	})
	g.Go(func() error {
		res := o.fetcher.TasteScore(ctx, subjectID)
		o.degrade("taste score", res.Err)
		o.apply(gen, func() { o.taste = res.Value })
		return nil
	})
	g.Go(func() error {
		res := o.fetcher.SongOfDay(ctx)
		o.degrade("song of the day", res.Err)
		o.apply(gen, func() { o.song = res.Value })
		return nil
	})

	_ = g.Wait()
}

func (o *Orchestrator) degrade(field string, err *services.TransportError) {
	if err != nil {
		o.logger.Warn("field unavailable", "field", field, "kind", err.Kind, "status", err.Status, "message", err.Message)
	}
}

func (o *Orchestrator) redirect(gen uint64, terr *services.TransportError) {
	nav := terr.Navigation
	if !nav.Required() {
		nav = services.Navigation{Kind: services.NavigateLogin, URL: o.loginURL}
	}

	if o.apply(gen, func() {
		o.status = Redirecting
		o.navigation = nav
	}) {
		o.emit(redirectUpdate(gen, terr.Message))
	}
}

// apply runs fn under the lock when gen is still the current generation and reports whether it ran.
func (o *Orchestrator) apply(gen uint64, fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		return false
	}
	fn()
	return true
}

func (o *Orchestrator) emit(u ProgressUpdate) {
	if o.updates == nil {
		return
	}
	select {
	case o.updates <- u:
	default:
	}
}

// FetchNow pulls recent activity, reconciles it against the cached history and replaces the history with the
// result. It reports whether the history changed.
//
// Only one fetch runs at a time: a call made while another is in flight returns [ErrFetchInFlight] and does
// nothing.
func (o *Orchestrator) FetchNow(ctx context.Context) (bool, error) {
	if !o.fetching.CompareAndSwap(false, true) {
		return false, ErrFetchInFlight
	}
	defer o.fetching.Store(false)

	o.mu.Lock()
	gen, status, subjectID := o.generation, o.status, o.subject.SubjectID
	o.mu.Unlock()

	if status != Ready {
		return false, ErrNotReady
	}

	res := o.fetcher.FetchHistory(ctx, subjectID)
	if !res.OK() {
		o.logger.Warn("fetch now failed", "status", res.Status, "message", res.Err.Message)
		return false, res.Err
	}

	var changed bool
	var added int
	o.apply(gen, func() {
		merged, ok := history.Reconcile(o.history, res.Value)
		if ok {
			added = len(merged) - len(o.history)
			o.history = merged
			o.historyErr = nil
			o.engine.SetItemCount(len(o.history))
		}
		changed = ok
	})

	o.logger.Debug("fetch now complete", "fetched", len(res.Value), "added", added)
	o.emit(fetchNowUpdate(gen, added))
	return changed, nil
}

// Fetching reports whether a manual fetch is in flight.
func (o *Orchestrator) Fetching() bool {
	return o.fetching.Load()
}

// Resize applies a viewport measurement to the pagination engine.
func (o *Orchestrator) Resize(v pagination.Viewport) pagination.State {
	return o.paginate(func(e *pagination.Engine) pagination.State { return e.Resize(v) })
}

func (o *Orchestrator) GoTo(page int) pagination.State {
	return o.paginate(func(e *pagination.Engine) pagination.State { return e.GoTo(page) })
}

// GoToSlot navigates to the page shown in the given button slot. Out-of-window slots are ignored.
func (o *Orchestrator) GoToSlot(slot int) pagination.State {
	return o.paginate(func(e *pagination.Engine) pagination.State {
		if page := e.PageForSlot(slot); page > 0 {
			return e.GoTo(page)
		}
		return e.State()
	})
}

func (o *Orchestrator) First() pagination.State { return o.paginate((*pagination.Engine).First) }
func (o *Orchestrator) Prev() pagination.State  { return o.paginate((*pagination.Engine).Prev) }
func (o *Orchestrator) Next() pagination.State  { return o.paginate((*pagination.Engine).Next) }
func (o *Orchestrator) Last() pagination.State  { return o.paginate((*pagination.Engine).Last) }

func (o *Orchestrator) paginate(fn func(*pagination.Engine) pagination.State) pagination.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fn(o.engine)
}

// History returns a copy of the full reconciled history.
func (o *Orchestrator) History() []models.Track {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.Track(nil), o.history...)
}

// View is the assembled model handed to the presentation layer.
type View struct {
	Status     Status
	Generation uint64
	Owner      models.Profile
	Subject    models.Profile
	Tracks     []models.Track // current page
	TrackCount int
	Empty      bool
	HistoryErr *services.TransportError
	Page       pagination.State
	Buttons    []pagination.Button
	Controls   pagination.Controls
	Diversity  models.Score
	Taste      models.Score
	SongOfDay  *models.SongOfDay
	Navigation services.Navigation
	Fetching   bool
}

// ViewingOther reports whether the subject differs from the session owner.
func (v View) ViewingOther() bool {
	return v.Subject.SubjectID != "" && v.Subject.SubjectID != v.Owner.SubjectID
}

// Snapshot returns a consistent copy of the view state.
func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	start, end := o.engine.Bounds()
	return View{
		Status:     o.status,
		Generation: o.generation,
		Owner:      o.owner,
		Subject:    o.subject,
		Tracks:     append([]models.Track(nil), history.Page(o.history, start, end)...),
		TrackCount: len(o.history),
		Empty:      o.status == Ready && len(o.history) == 0,
		HistoryErr: o.historyErr,
		Page:       o.engine.State(),
		Buttons:    o.engine.Buttons(),
		Controls:   o.engine.Controls(),
		Diversity:  o.diversity,
		Taste:      o.taste,
		SongOfDay:  o.song,
		Navigation: o.navigation,
		Fetching:   o.fetching.Load(),
	}
}
