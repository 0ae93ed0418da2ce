package dashboard

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/scorify/internal/services"
	"github.com/desertthunder/scorify/internal/shared"
	tu "github.com/desertthunder/scorify/internal/testing"
)

func historyBody(names ...string) map[string]any {
	rows := make([]map[string]any, len(names))
	for i, n := range names {
		rows[i] = map[string]any{"id": strings.ToLower(n), "track_name": n, "artists": "Artist"}
	}
	return map[string]any{"user_listening_history": rows}
}

func TestDashboardOverTransport(t *testing.T) {
	b := tu.NewBackend(t)
	b.On("/get-user-info", tu.Expired(), tu.OK(map[string]any{"user_info": map[string]any{"id": "u1", "display_name": "Ada"}}))
	b.On("/refresh-user-token", tu.OK(map[string]string{"message": "Access token refreshed"}))
	b.On("/get-user-listening-history-by-id/u1", tu.OK(historyBody("Song2", "Song1")))
	b.On("/fetch-user-listening-history-by-id/u1", tu.OK(historyBody("Song3", "Song2")))
	b.On("/get-user-diversity-score-by-id/u1", tu.OK(map[string]any{"diversity_score": 0.8765}))
	b.On("/get-user-taste-score-by-id/u1", tu.OK(map[string]any{"taste_score": 0.1}))
	b.On("/get-song-of-the-day", tu.Expired())

	logger := shared.NewLogger(&strings.Builder{})
	tr, err := services.NewTransport(services.TransportOptions{BaseURL: b.URL(), Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := New(services.NewClient(tr, logger), Options{Logger: logger, LoginURL: tr.LoginURL()})
	if err := o.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	v := o.Snapshot()
	if v.Status != Ready || v.Owner.DisplayName != "Ada" {
		t.Fatalf("expected ready dashboard for Ada, got %v %+v", v.Status, v.Owner)
	}
	if v.Diversity.String() != "87.65%" || v.Taste.String() != "10.00%" {
		t.Errorf("unexpected scores %s / %s", v.Diversity, v.Taste)
	}
	if v.SongOfDay != nil || v.Navigation.Required() {
		t.Errorf("song of the day failure must only degrade its field, got %+v", v)
	}
	if got := b.Hits("/get-song-of-the-day"); got != 2 {
		t.Errorf("expected one retry of song of the day, got %d calls", got)
	}
	if got := b.Hits("/refresh-user-token"); got != 2 {
		t.Errorf("expected one refresh per expired call, got %d", got)
	}

	if _, err := o.FetchNow(context.Background()); err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}
	if got := trackNames(o.History()); !reflect.DeepEqual(got, []string{"Song3", "Song2", "Song2", "Song1"}) {
		t.Errorf("unexpected history %v", got)
	}
}
