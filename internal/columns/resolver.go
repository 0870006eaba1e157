// Package columns maps arbitrary dataset headers onto the semantic roles the
// analyses need (popularity, duration, genre, name, artist).
package columns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/songlens-cli/internal/dataset"
)

// Role is a semantic column role.
type Role string

const (
	Popularity Role = "popularity"
	Duration   Role = "duration"
	Genre      Role = "genre"
	Name       Role = "name"
	Artist     Role = "artist"
)

// Roles lists every role in resolution order.
var Roles = []Role{Popularity, Duration, Genre, Name, Artist}

// DefaultKeywords holds the substrings matched (case-insensitively) per role.
var DefaultKeywords = map[Role][]string{
	Popularity: {"popular", "stream", "listen", "like"},
	Duration:   {"duration", "length", "time"},
	Genre:      {"genre", "category", "type", "style"},
	Name:       {"name", "title", "song"},
	Artist:     {"artist", "band", "singer", "performer"},
}

var (
	// ErrNoPopularity means neither a keyword match nor a numeric column exists.
	ErrNoPopularity = errors.New("could not identify a column for popularity")
	// ErrNoColumns means the dataset has no columns at all.
	ErrNoColumns = errors.New("dataset has no columns")
	// ErrUnknownColumn means an override names a column the dataset lacks.
	ErrUnknownColumn = errors.New("override names an unknown column")
	// ErrUnknownRole means configuration names a role that does not exist.
	ErrUnknownRole = errors.New("unknown column role")
)

// Source records how a role was resolved.
type Source string

const (
	SourceNone     Source = ""
	SourceKeyword  Source = "keyword"
	SourceFallback Source = "fallback"
	SourceOverride Source = "override"
)

// Match is the optional result for one role.
type Match struct {
	Column string
	Source Source
}

// Found reports whether the role resolved to a column.
func (m Match) Found() bool { return m.Source != SourceNone }

// Info describes one dataset column for resolution purposes.
type Info struct {
	Name    string
	Numeric bool
}

// FromFrame describes the columns of a loaded frame.
func FromFrame(f *dataset.Frame) []Info {
	out := make([]Info, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = Info{Name: c.Name, Numeric: c.Kind == dataset.KindNumeric}
	}
	return out
}

// Resolution holds one Match per role. It is a value and never mutated after
// Resolve returns.
type Resolution struct {
	Popularity Match
	Duration   Match
	Genre      Match
	Name       Match
	Artist     Match
}

// Get returns the match for a role.
func (r Resolution) Get(role Role) Match {
	switch role {
	case Popularity:
		return r.Popularity
	case Duration:
		return r.Duration
	case Genre:
		return r.Genre
	case Name:
		return r.Name
	case Artist:
		return r.Artist
	}
	return Match{}
}

// Map returns role -> column for every resolved role.
func (r Resolution) Map() map[string]string {
	out := make(map[string]string, len(Roles))
	for _, role := range Roles {
		if m := r.Get(role); m.Found() {
			out[string(role)] = m.Column
		}
	}
	return out
}

func (r *Resolution) set(role Role, m Match) {
	switch role {
	case Popularity:
		r.Popularity = m
	case Duration:
		r.Duration = m
	case Genre:
		r.Genre = m
	case Name:
		r.Name = m
	case Artist:
		r.Artist = m
	}
}

// Resolver resolves roles against a column list. The zero value uses
// DefaultKeywords and no overrides.
type Resolver struct {
	// Keywords replaces the keyword set of the roles it names.
	Keywords map[Role][]string
	// Overrides pins a role to an exact column name.
	Overrides map[Role]string
}

// NewResolver builds a Resolver from string-keyed configuration maps.
func NewResolver(keywords map[string][]string, overrides map[string]string) (*Resolver, error) {
	r := &Resolver{Keywords: map[Role][]string{}, Overrides: map[Role]string{}}
	for k, kws := range keywords {
		role, err := ParseRole(k)
		if err != nil {
			return nil, err
		}
		r.Keywords[role] = kws
	}
	for k, col := range overrides {
		role, err := ParseRole(k)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(col) != "" {
			r.Overrides[role] = col
		}
	}
	return r, nil
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if role == known {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r *Resolver) keywordsFor(role Role) []string {
	if r != nil {
		if kws, ok := r.Keywords[role]; ok && len(kws) > 0 {
			return kws
		}
	}
	return DefaultKeywords[role]
}

// Resolve assigns a column to each role. Popularity and name are required and
// use fallbacks; the other roles stay unresolved when nothing matches.
func (r *Resolver) Resolve(cols []Info) (Resolution, error) {
	var res Resolution
	if len(cols) == 0 {
		return res, ErrNoColumns
	}
	for _, role := range Roles {
		m, err := r.resolveRole(role, cols)
		if err != nil {
			return Resolution{}, err
		}
		res.set(role, m)
	}
	return res, nil
}

func (r *Resolver) resolveRole(role Role, cols []Info) (Match, error) {
	if r != nil {
		if col, ok := r.Overrides[role]; ok {
			for _, c := range cols {
				if c.Name == col {
					return Match{Column: col, Source: SourceOverride}, nil
				}
			}
			return Match{}, fmt.Errorf("%w: %s=%q", ErrUnknownColumn, role, col)
		}
	}
	if col, ok := FirstMatch(cols, r.keywordsFor(role)); ok {
		return Match{Column: col, Source: SourceKeyword}, nil
	}
	switch role {
	case Popularity:
		for _, c := range cols {
			if c.Numeric {
				return Match{Column: c.Name, Source: SourceFallback}, nil
			}
		}
		return Match{}, ErrNoPopularity
	case Name:
		for _, c := range cols {
			if !c.Numeric {
				return Match{Column: c.Name, Source: SourceFallback}, nil
			}
		}
		return Match{Column: cols[0].Name, Source: SourceFallback}, nil
	}
	return Match{}, nil
}

// FirstMatch returns the first column, in original order, whose lowercased
// name contains any of the keywords.
func FirstMatch(cols []Info, keywords []string) (string, bool) {
	for _, c := range cols {
		lower := strings.ToLower(c.Name)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return c.Name, true
			}
		}
	}
	return "", false
}
