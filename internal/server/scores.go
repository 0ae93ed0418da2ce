package server

import (
	"math"
	"slices"
	"strings"
)

// RootGenres are the buckets every listened genre is classified into.
var RootGenres = []string{
	"Pop", "Rock", "Hip Hop", "R&B", "Electronic", "Jazz", "Classical",
	"Country", "Folk", "Metal", "Punk", "Latin", "Blues", "Reggae",
}

var subGenres = map[string][]string{
	"Pop":        {"dance pop", "indie pop", "k-pop", "synthpop", "electropop", "art pop", "hyperpop", "neo-synthpop", "bedroom pop", "dream pop"},
	"Rock":       {"alternative rock", "indie rock", "classic rock", "hard rock", "garage rock", "psychedelic rock", "shoegaze", "post-rock", "grunge"},
	"Hip Hop":    {"rap", "trap", "boom bap", "conscious hip hop", "drill", "gangster rap", "underground hip hop"},
	"R&B":        {"neo soul", "contemporary r&b", "soul", "funk", "motown", "alternative r&b"},
	"Electronic": {"edm", "house", "techno", "dubstep", "drum and bass", "trance", "ambient", "idm", "electro"},
	"Jazz":       {"bebop", "smooth jazz", "jazz fusion", "cool jazz", "swing", "free jazz"},
	"Classical":  {"baroque", "romantic", "opera", "orchestral", "contemporary classical", "minimalism"},
	"Country":    {"bluegrass", "americana", "outlaw country", "country pop", "alt-country"},
	"Folk":       {"indie folk", "singer-songwriter", "folk rock", "chamber folk", "anti-folk"},
	"Metal":      {"heavy metal", "death metal", "black metal", "djent", "progressive metal", "metalcore", "doom metal", "thrash metal"},
	"Punk":       {"pop punk", "post-punk", "hardcore punk", "skate punk", "emo"},
	"Latin":      {"reggaeton", "latin pop", "salsa", "bachata", "cumbia", "bossa nova"},
	"Blues":      {"delta blues", "chicago blues", "electric blues", "blues rock"},
	"Reggae":     {"dancehall", "dub", "roots reggae", "ska"},
}

var genreIndex = func() map[string]string {
	index := make(map[string]string)
	for root, subs := range subGenres {
		for _, s := range subs {
			index[strings.ToLower(s)] = root
		}
	}
	for _, root := range RootGenres {
		index[strings.ToLower(root)] = root
	}
	return index
}()

// ClassifyGenre maps a provider genre onto its root bucket.
func ClassifyGenre(genre string) (string, bool) {
	root, ok := genreIndex[strings.ToLower(strings.TrimSpace(genre))]
	return root, ok
}

// Bucketize classifies each play's genres, keeping one entry per root.
// Plays whose genres are all unknown are dropped.
func Bucketize(lists [][]string) [][]string {
	var out [][]string
	for _, genres := range lists {
		var buckets []string
		for _, g := range genres {
			if root, ok := ClassifyGenre(g); ok && !slices.Contains(buckets, root) {
				buckets = append(buckets, root)
			}
		}
		if len(buckets) > 0 {
			slices.Sort(buckets)
			out = append(out, buckets)
		}
	}
	return out
}

// Diversity is the Shannon entropy of the root-genre distribution, normalized by the entropy of a uniform spread
// over [RootGenres]. The result is in [0,1], rounded to two decimals.
func Diversity(lists [][]string) float64 {
	counts := make(map[string]int, len(RootGenres))
	total := 0
	for _, buckets := range Bucketize(lists) {
		for _, root := range buckets {
			counts[root]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, n := range counts {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}

	return round2(entropy / math.Log2(float64(len(RootGenres))))
}

// Taste is 1 minus the distance between a user's diversity and the developers' average, clamped to [0,1].
// Without developers there is nothing to align with and the score is 0.
func Taste(user float64, developers []float64) float64 {
	if len(developers) == 0 {
		return 0
	}

	sum := 0.0
	for _, d := range developers {
		sum += d
	}

	score := 1 - math.Abs(user-sum/float64(len(developers)))
	return round2(min(1, max(0, score)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
