package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/dataset"
)

// SongRank is one entry of the popularity ranking.
type SongRank struct {
	Row        int
	Title      string
	Artist     string
	Popularity float64
}

// Label is "title - artist", or the title alone when no artist is known.
func (s SongRank) Label() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Title + " - " + s.Artist
}

// ErrEmptyDataset is returned by analyses that need at least one row.
var ErrEmptyDataset = errors.New("dataset has no rows")

// TopSongs coerces popularity to numeric and returns the n most popular rows
// in descending order. Rows without a popularity value are not ranked; ties
// keep dataset order.
func TopSongs(f *dataset.Frame, res columns.Resolution, n int) ([]SongRank, error) {
	popName, err := requireRole(res, columns.Popularity)
	if err != nil {
		return nil, err
	}
	if _, err := f.ToNumeric(popName); err != nil {
		return nil, fmt.Errorf("coerce popularity: %w", err)
	}
	if f.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	pop, _ := f.Column(popName)
	title, err := f.Column(res.Name.Column)
	if err != nil {
		return nil, fmt.Errorf("name column: %w", err)
	}
	var artist *dataset.Column
	if res.Artist.Found() {
		if artist, err = f.Column(res.Artist.Column); err != nil {
			return nil, fmt.Errorf("artist column: %w", err)
		}
	}

	ranks := make([]SongRank, 0, f.Len())
	for i, v := range pop.Values {
		if v.IsMissing() {
			continue
		}
		r := SongRank{Row: i, Title: title.Values[i].String(), Popularity: v.Num}
		if artist != nil {
			r.Artist = artist.Values[i].String()
		}
		ranks = append(ranks, r)
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("popularity column %q has no numeric values", popName)
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Popularity > ranks[j].Popularity })
	if n > 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks, nil
}
