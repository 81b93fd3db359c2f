package resolver

import (
	"testing"

	tmdb "github.com/cyruzin/golang-tmdb"
	"github.com/stretchr/testify/assert"
)

func results() []tmdb.MovieResult {
	return []tmdb.MovieResult{
		{ID: 624860, Title: "The Matrix Resurrections", ReleaseDate: "2021-12-16"},
		{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30"},
		{ID: 555879, Title: "A Glitch in the Matrix", ReleaseDate: "2021-02-05"},
	}
}

func TestUnit_PickBestResult(t *testing.T) {
	t.Run("exact title beats relevance order", func(t *testing.T) {
		best := pickBestResult(results(), "the matrix", "")
		assert.EqualValues(t, 603, best.ID)
	})

	t.Run("year hint narrows exact matches", func(t *testing.T) {
		dupes := append(results(), tmdb.MovieResult{ID: 999, Title: "The Matrix", ReleaseDate: "2021-01-01"})
		best := pickBestResult(dupes, "The Matrix", "2021")
		assert.EqualValues(t, 999, best.ID)
	})

	t.Run("year hint alone picks the matching release", func(t *testing.T) {
		best := pickBestResult(results(), "Matrix", "1999")
		assert.EqualValues(t, 603, best.ID)
	})

	t.Run("no match falls back to the first result", func(t *testing.T) {
		best := pickBestResult(results(), "Matrix", "")
		assert.EqualValues(t, 624860, best.ID)
	})
}

func TestUnit_TitleEqual(t *testing.T) {
	assert.True(t, titleEqual("The  Matrix", "the matrix"))
	assert.True(t, titleEqual(" The Matrix ", "THE MATRIX"))
	assert.False(t, titleEqual("The Matrix", "The Matrix Resurrections"))
}

func TestUnit_ReleaseYear(t *testing.T) {
	assert.Equal(t, "1999", releaseYear("1999-03-30"))
	assert.Equal(t, "", releaseYear(""))
	assert.Equal(t, "", releaseYear("99"))
}
