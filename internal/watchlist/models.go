package watchlist

// Genre is a TMDB genre attached to a movie.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a saved catalog entry. Only ID is interpreted by the store; the
// rest is carried through for display.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	PosterURL   string  `json:"poster_url,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	Genres      []Genre `json:"genres,omitempty"`
}

// Snapshot is an ordered, point-in-time copy of a watchlist.
type Snapshot []Movie

// IDs returns the movie ids in display order.
func (s Snapshot) IDs() []int {
	ids := make([]int, len(s))
	for i, m := range s {
		ids[i] = m.ID
	}
	return ids
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, m := range s {
		if m.Genres != nil {
			m.Genres = append([]Genre(nil), m.Genres...)
		}
		out[i] = m
	}
	return out
}
