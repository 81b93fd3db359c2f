// Package resolver turns human-entered titles into TMDB ids so callers can
// reach the aggregate without already knowing the id.
package resolver

import (
	"context"
	"fmt"
	"strings"

	tmdb "github.com/cyruzin/golang-tmdb"
)

// Match is one resolved title.
type Match struct {
	TMDBID   int
	Title    string
	Year     string
	Overview string
}

// Resolver searches TMDB for movie titles. TV resolution is intentionally
// absent: the vendors key series lookups by explicit TMDB id, and series
// naming is ambiguous enough that guessing does more harm than good.
type Resolver struct {
	client *tmdb.Client
}

func New(apiKey string) (*Resolver, error) {
	client, err := tmdb.InitV4(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	return &Resolver{client: client}, nil
}

// ResolveMovie finds the best TMDB match for a movie title. yearHint, when
// non-empty, prefers results released that year. Prefers an exact title
// match, then TMDB's own relevance order.
func (r *Resolver) ResolveMovie(_ context.Context, title, yearHint string) (Match, error) {
	search, err := r.client.GetSearchMovies(title, map[string]string{"language": "en-US"})
	if err != nil {
		return Match{}, fmt.Errorf("failed to search for movie %q: %w", title, err)
	}
	if len(search.Results) == 0 {
		return Match{}, fmt.Errorf("no TMDB results for movie %q", title)
	}

	best := pickBestResult(search.Results, title, yearHint)
	return Match{
		TMDBID:   int(best.ID),
		Title:    best.Title,
		Year:     releaseYear(best.ReleaseDate),
		Overview: best.Overview,
	}, nil
}

func pickBestResult(results []tmdb.MovieResult, title, yearHint string) *tmdb.MovieResult {
	var titleMatch *tmdb.MovieResult
	for i := range results {
		if !titleEqual(results[i].Title, title) {
			continue
		}
		if yearHint != "" && releaseYear(results[i].ReleaseDate) == yearHint {
			return &results[i]
		}
		if titleMatch == nil {
			titleMatch = &results[i]
		}
	}
	if titleMatch != nil {
		return titleMatch
	}
	if yearHint != "" {
		for i := range results {
			if releaseYear(results[i].ReleaseDate) == yearHint {
				return &results[i]
			}
		}
	}
	return &results[0]
}

// titleEqual collapses whitespace and compares case-insensitively.
func titleEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.ToUpper(strings.Join(strings.Fields(s), " "))
	}
	return norm(a) == norm(b)
}

func releaseYear(releaseDate string) string {
	if len(releaseDate) < 4 {
		return ""
	}
	return releaseDate[:4]
}
