package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/dataset"
)

// GenreStat is the popularity summary of one genre.
type GenreStat struct {
	Genre string
	Mean  float64
	// Count is the number of rows with a popularity value.
	Count int
}

// GenreShare is one slice of the genre distribution.
type GenreShare struct {
	Genre string
	Count int
	// Share is relative to the slices shown; Fraction to all rows with a genre.
	Share    float64
	Fraction float64
}

// GenreReport holds both genre charts' data.
type GenreReport struct {
	// Ranked holds qualifying genres by mean popularity, already cut to the
	// requested length. It may be empty.
	Ranked       []GenreStat
	Distribution []GenreShare
	// Qualifying is the number of genres meeting the minimum count.
	Qualifying int
}

// GenrePopularity groups rows by genre. The ranking keeps genres with at
// least minCount popularity values, sorted by mean (ties by name), cut to
// topN. The distribution counts raw rows per genre, independent of minCount,
// and keeps the pieN most frequent (ties by first appearance).
func GenrePopularity(f *dataset.Frame, res columns.Resolution, minCount, topN, pieN int) (*GenreReport, error) {
	genreName, err := requireRole(res, columns.Genre)
	if err != nil {
		return nil, err
	}
	popName, err := requireRole(res, columns.Popularity)
	if err != nil {
		return nil, err
	}
	if _, err := f.ToNumeric(popName); err != nil {
		return nil, fmt.Errorf("coerce popularity: %w", err)
	}
	genre, err := f.Column(genreName)
	if err != nil {
		return nil, err
	}
	pop, _ := f.Column(popName)

	type acc struct {
		rows int
		n    int
		sum  float64
	}
	groups := map[string]*acc{}
	var order []string
	total := 0
	for i, g := range genre.Values {
		if g.IsMissing() {
			continue
		}
		key := genreKey(g)
		a, ok := groups[key]
		if !ok {
			a = &acc{}
			groups[key] = a
			order = append(order, key)
		}
		a.rows++
		total++
		if p := pop.Values[i]; !p.IsMissing() {
			a.n++
			a.sum += p.Num
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("genre column %q has no values", genreName)
	}

	rep := &GenreReport{}
	for _, key := range order {
		a := groups[key]
		if a.n >= minCount && a.n > 0 {
			rep.Ranked = append(rep.Ranked, GenreStat{Genre: key, Mean: a.sum / float64(a.n), Count: a.n})
		}
	}
	rep.Qualifying = len(rep.Ranked)
	sort.Slice(rep.Ranked, func(i, j int) bool {
		if rep.Ranked[i].Mean == rep.Ranked[j].Mean {
			return rep.Ranked[i].Genre < rep.Ranked[j].Genre
		}
		return rep.Ranked[i].Mean > rep.Ranked[j].Mean
	})
	if topN > 0 && len(rep.Ranked) > topN {
		rep.Ranked = rep.Ranked[:topN]
	}

	freq := append([]string(nil), order...)
	sort.SliceStable(freq, func(i, j int) bool { return groups[freq[i]].rows > groups[freq[j]].rows })
	if pieN > 0 && len(freq) > pieN {
		freq = freq[:pieN]
	}
	shown := 0
	for _, key := range freq {
		shown += groups[key].rows
	}
	for _, key := range freq {
		c := groups[key].rows
		rep.Distribution = append(rep.Distribution, GenreShare{
			Genre:    key,
			Count:    c,
			Share:    float64(c) / float64(shown),
			Fraction: float64(c) / float64(total),
		})
	}
	return rep, nil
}

// genreKey groups numeric codes by value, so "1" and "1.0" are one genre.
func genreKey(v dataset.Value) string {
	if v.Kind == dataset.Number {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.String()
}
