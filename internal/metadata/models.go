package metadata

import "fmt"

// tmdbGenreMap maps TMDB genre IDs to human-readable names (movies).
var tmdbGenreMap = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance",
	878: "Science Fiction", 10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
}

// GenreName returns the TMDB name for a movie genre id.
func GenreName(id int) (string, bool) {
	name, ok := tmdbGenreMap[id]
	return name, ok
}

// CategoryTitle is the heading of a home screen rail, e.g. "Action Movies".
func CategoryTitle(genreID int) string {
	if name, ok := tmdbGenreMap[genreID]; ok {
		return name + " Movies"
	}
	return fmt.Sprintf("Genre %d", genreID)
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a TMDB movie as returned by list, search and detail calls.
// Detail-only fields are empty on list results.
type Movie struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path,omitempty"`
	PosterURL     string  `json:"poster_url,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	VoteAverage   float64 `json:"vote_average"`
	GenreIDs      []int   `json:"genre_ids,omitempty"`
	Genres        []Genre `json:"genres,omitempty"`
	Runtime       int     `json:"runtime,omitempty"`
	Tagline       string  `json:"tagline,omitempty"`
}

// Page is one page of a TMDB list endpoint.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// Category is one home screen rail.
type Category struct {
	GenreID int     `json:"genre_id"`
	Title   string  `json:"title"`
	Movies  []Movie `json:"movies"`
}
