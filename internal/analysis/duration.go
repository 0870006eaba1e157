package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
	"github.com/KaramelBytes/songlens-cli/internal/dataset"
)

// DurationBin is the popularity distribution of one duration quantile bin.
type DurationBin struct {
	Lo, Hi float64
	// First bins include Lo; the rest are (Lo, Hi].
	First          bool
	MeanPopularity float64
	Box            BoxStats
}

// Label renders the bin interval.
func (b DurationBin) Label() string {
	open := "("
	if b.First {
		open = "["
	}
	return open + fmtNum(b.Lo) + ", " + fmtNum(b.Hi) + "]"
}

// DurationReport holds everything the duration analysis draws.
type DurationReport struct {
	Duration   []float64
	Popularity []float64
	// Dropped counts rows missing either value.
	Dropped int
	Corr    Correlation
	Bins    []DurationBin
}

// DurationPopularity coerces duration (and popularity) to numeric, drops
// incomplete rows, and computes the correlation and per-bin distributions.
func DurationPopularity(f *dataset.Frame, res columns.Resolution, bins int) (*DurationReport, error) {
	durName, err := requireRole(res, columns.Duration)
	if err != nil {
		return nil, err
	}
	popName, err := requireRole(res, columns.Popularity)
	if err != nil {
		return nil, err
	}
	if _, err := f.ToNumeric(durName); err != nil {
		return nil, fmt.Errorf("coerce duration: %w", err)
	}
	if _, err := f.ToNumeric(popName); err != nil {
		return nil, fmt.Errorf("coerce popularity: %w", err)
	}
	dur, _ := f.Column(durName)
	pop, _ := f.Column(popName)

	rep := &DurationReport{}
	for i := range dur.Values {
		d, p := dur.Values[i], pop.Values[i]
		if d.IsMissing() || p.IsMissing() {
			rep.Dropped++
			continue
		}
		rep.Duration = append(rep.Duration, d.Num)
		rep.Popularity = append(rep.Popularity, p.Num)
	}
	if len(rep.Duration) == 0 {
		return nil, fmt.Errorf("no rows with both %q and %q", durName, popName)
	}
	corr, err := Pearson(rep.Duration, rep.Popularity)
	if err != nil {
		return nil, err
	}
	rep.Corr = corr

	edges, err := QuantileEdges(rep.Duration, bins)
	if err != nil {
		return nil, err
	}
	grouped := make([][]float64, len(edges)-1)
	for i, d := range rep.Duration {
		if b := BinIndex(edges, d); b >= 0 {
			grouped[b] = append(grouped[b], rep.Popularity[i])
		}
	}
	for b, vals := range grouped {
		if len(vals) == 0 {
			continue
		}
		box, err := Box(vals)
		if err != nil {
			return nil, err
		}
		rep.Bins = append(rep.Bins, DurationBin{
			Lo:             edges[b],
			Hi:             edges[b+1],
			First:          b == 0,
			MeanPopularity: mean(vals),
			Box:            box,
		})
	}
	return rep, nil
}

func mean(vals []float64) float64 {
	m, err := stats.Mean(vals)
	if err != nil {
		return math.NaN()
	}
	return m
}

func fmtNum(v float64) string { return strconv.FormatFloat(v, 'g', 4, 64) }
