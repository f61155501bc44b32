// Package similarity scores how alike two text values are on a 0-100 scale.
//
// Score is substring tolerant: a short value found, with minor edits, inside
// a longer one scores close to 100. This lets nicknames and suffixed names
// ("yankees" against "new york yankees") compare favorably.
package similarity

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/masterlink/pkg/constants"
)

// Option configures a scoring call.
type Option func(*options)

type options struct {
	caseSensitive bool
}

// CaseSensitive controls whether letter case is significant.
// The default is false: both inputs are lowercased before scoring.
func CaseSensitive(enabled bool) Option {
	return func(o *options) {
		o.caseSensitive = enabled
	}
}

// Score returns the partial similarity ratio of a and b in [0,100].
//
// The shorter input is aligned against the longer one at each matching
// block and the best window ratio is reported. Argument order does not
// matter. An empty input carries no evidence and scores 0.
func Score(a, b string, opts ...Option) int {
	a, b = prepare(a, b, opts)
	switch {
	case a == "" || b == "":
		return 0
	case a == b:
		return constants.MaxScore
	}
	return fuzzy.PartialRatio(a, b)
}

// Ratio returns the plain indel similarity ratio of a and b in [0,100]:
// 2*LCS / (len(a)+len(b)), computed over runes.
func Ratio(a, b string, opts ...Option) int {
	a, b = prepare(a, b, opts)
	if a == "" && b == "" {
		return 0
	}
	return fuzzy.Ratio(a, b)
}

func prepare(a, b string, opts []Option) (string, string) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.caseSensitive {
		return a, b
	}
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Lower(language.Und).String(a), cases.Lower(language.Und).String(b)
}
