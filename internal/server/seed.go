package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/scorify/internal/models"
	"github.com/desertthunder/scorify/internal/repositories"
)

type seedPlay struct {
	name, artist, album string
	genres              []string
}

type seedUser struct {
	id, name, avatar string
	developer        bool
	plays            []seedPlay
	pending          []seedPlay
}

var demoUsers = []seedUser{
	{
		id: "ada", name: "Ada", avatar: "https://i.pravatar.cc/300?u=ada", developer: true,
		plays: []seedPlay{
			{"Harder, Better, Faster, Stronger", "Daft Punk", "Discovery", []string{"french house", "house", "electro"}},
			{"Paranoid Android", "Radiohead", "OK Computer", []string{"alternative rock", "art rock"}},
			{"So What", "Miles Davis", "Kind of Blue", []string{"cool jazz", "bebop"}},
			{"Alright", "Kendrick Lamar", "To Pimp a Butterfly", []string{"conscious hip hop", "rap"}},
			{"Jolene", "Dolly Parton", "Jolene", []string{"country pop", "americana"}},
			{"Nuvole Bianche", "Ludovico Einaudi", "Una Mattina", []string{"contemporary classical", "minimalism"}},
		},
		pending: []seedPlay{
			{"Dreams", "Fleetwood Mac", "Rumours", []string{"classic rock", "soft rock"}},
		},
	},
	{
		id: "grace", name: "Grace", avatar: "https://i.pravatar.cc/300?u=grace", developer: true,
		plays: []seedPlay{
			{"Master of Puppets", "Metallica", "Master of Puppets", []string{"thrash metal", "heavy metal"}},
			{"Bleed", "Meshuggah", "obZen", []string{"djent", "progressive metal"}},
			{"Blitzkrieg Bop", "Ramones", "Ramones", []string{"punk", "pop punk"}},
			{"Smells Like Teen Spirit", "Nirvana", "Nevermind", []string{"grunge", "alternative rock"}},
		},
	},
	{
		id: "linus", name: "Linus",
		plays: []seedPlay{
			{"Levitating", "Dua Lipa", "Future Nostalgia", []string{"dance pop", "pop"}},
			{"Anti-Hero", "Taylor Swift", "Midnights", []string{"pop"}},
			{"Blinding Lights", "The Weeknd", "After Hours", []string{"synthpop", "pop"}},
		},
		pending: []seedPlay{
			{"Espresso", "Sabrina Carpenter", "Short n' Sweet", []string{"pop"}},
			{"Good Luck, Babe!", "Chappell Roan", "Good Luck, Babe!", []string{"indie pop"}},
		},
	},
}

// Seed fills an empty database with demo users, plays and today's song.
//
// Plays are spaced a few minutes apart ending at now. Pending plays are newer than every pulled one, so the first
// incremental fetch surfaces them. A database that already has users is left alone.
func Seed(ctx context.Context, db *sql.DB, now time.Time) error {
	users := repositories.NewUserRepository(db)
	existing, err := users.List(nil)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	plays := repositories.NewPlayRepository(db)
	for _, su := range demoUsers {
		user := models.NewUser(0, su.name, su.avatar, su.developer)
		user.SetID(su.id)
		if err := users.Create(user); err != nil {
			return fmt.Errorf("seed user %s: %w", su.id, err)
		}

		at := now.Add(-time.Duration(len(su.plays)+len(su.pending)) * 3 * time.Minute)
		add := func(sp seedPlay, pending bool, i int) error {
			at = at.Add(3 * time.Minute)
			return plays.Add(ctx, models.Play{
				UserID: su.id,
				Track: models.Track{
					ID:          fmt.Sprintf("%s-%d", su.id, i),
					TrackName:   sp.name,
					Artists:     models.Artists{sp.artist},
					AlbumName:   sp.album,
					ExternalURL: fmt.Sprintf("https://open.spotify.com/track/%s-%d", su.id, i),
				},
				Genres:   sp.genres,
				PlayedAt: at,
				Pending:  pending,
			})
		}

		for i := len(su.plays) - 1; i >= 0; i-- {
			if err := add(su.plays[i], false, i); err != nil {
				return fmt.Errorf("seed play: %w", err)
			}
		}
		for i, sp := range su.pending {
			if err := add(sp, true, len(su.plays)+i); err != nil {
				return fmt.Errorf("seed pending play: %w", err)
			}
		}
	}

	song := models.SongOfDay{
		TrackName:   "Hey Jude",
		Artists:     models.Artists{"The Beatles"},
		AlbumName:   "Hey Jude",
		ExternalURL: "https://open.spotify.com/track/0aym2LBJBk9DAYuHHutrIl",
	}
	if err := repositories.NewSongRepository(db).Set(ctx, now, song); err != nil {
		return fmt.Errorf("seed song of the day: %w", err)
	}

	return nil
}
