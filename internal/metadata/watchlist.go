package metadata

import (
	"context"
	"errors"

	"github.com/JustinTDCT/CineList/internal/watchlist"
)

// ResolveWatchlistMovie fetches a movie's details and converts them into a
// watchlist record. It satisfies watchlist.MovieResolver.
func (c *Client) ResolveWatchlistMovie(ctx context.Context, id int) (watchlist.Movie, error) {
	m, err := c.Details(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return watchlist.Movie{}, watchlist.ErrMovieNotFound
		}
		return watchlist.Movie{}, err
	}

	out := watchlist.Movie{
		ID:          m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		PosterURL:   m.PosterURL,
		ReleaseDate: m.ReleaseDate,
		Overview:    m.Overview,
	}
	for _, g := range m.Genres {
		out.Genres = append(out.Genres, watchlist.Genre{ID: g.ID, Name: g.Name})
	}
	return out, nil
}
