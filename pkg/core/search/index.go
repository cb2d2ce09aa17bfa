package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mitheta/moneyclub/pkg/core/model"
	"github.com/mitheta/moneyclub/pkg/core/normalize"
	"github.com/mitheta/moneyclub/pkg/metrics"
)

// Query paths, used as the metrics label
const (
	PathText    = "text"
	PathNumeric = "numeric"
)

var numericQuery = regexp.MustCompile(`^[0-9-]+$`)

// epsilon stands in for a zero field score so an exact match still weighs into the product
const epsilon = 2.220446049250313e-16

// Options configures matching
type Options struct {
	// Threshold and Distance apply to name fields
	Threshold float64
	Distance  int
	// IdentifierThreshold and IdentifierDistance apply to roll number fields
	IdentifierThreshold float64
	IdentifierDistance  int
	// MinQueryLength is the shortest query that reaches the index
	MinQueryLength int
	// MinMatchCharLength is the shortest matched run counted as a hit on the text path
	MinMatchCharLength int
	MaxResults         int
	// RollPrefix is stripped from numeric queries the same way it is stripped from rollShort
	RollPrefix string
	// Weights rank the fields of a free-text query; the zero value uses DefaultWeights
	Weights Weights
	Metrics *metrics.Metrics
}

// Weights are the relative field weights for free-text queries. Build normalizes them to sum to 1.
type Weights struct {
	FirstName float64
	LastName  float64
	FullName  float64
	RollShort float64
	RollFull  float64
}

// DefaultWeights returns the field weights used by the member lookup
func DefaultWeights() Weights {
	return Weights{FirstName: 0.4, LastName: 0.4, FullName: 0.3, RollShort: 0.3, RollFull: 0.2}
}

func (w Weights) total() float64 {
	return w.FirstName + w.LastName + w.FullName + w.RollShort + w.RollFull
}

// DefaultOptions returns the tuning used by the member lookup
func DefaultOptions() Options {
	return Options{
		Threshold:           0.4,
		Distance:            100,
		IdentifierThreshold: 0.2,
		IdentifierDistance:  50,
		MinQueryLength:      2,
		MinMatchCharLength:  2,
		MaxResults:          10,
		RollPrefix:          normalize.DefaultOptions().RollPrefix,
		Weights:             DefaultWeights(),
	}
}

// Result is a matched member; lower scores are better matches
type Result struct {
	Member model.Member `json:"member"`
	Score  float64      `json:"score"`
}

type field int

const (
	fieldFirstName field = iota
	fieldLastName
	fieldFullName
	fieldRollShort
	fieldRollFull
	numFields
)

type key struct {
	field      field
	weight     float64
	identifier bool
}

// textKeys are the fields searched for free-text queries
func textKeys(w Weights) []key {
	if w.total() <= 0 {
		w = DefaultWeights()
	}
	return normalizeWeights([]key{
		{field: fieldFirstName, weight: w.FirstName},
		{field: fieldLastName, weight: w.LastName},
		{field: fieldFullName, weight: w.FullName},
		{field: fieldRollShort, weight: w.RollShort, identifier: true},
		{field: fieldRollFull, weight: w.RollFull, identifier: true},
	})
}

// numericKeys are searched for digit-and-hyphen queries
var numericKeys = normalizeWeights([]key{
	{field: fieldRollShort, weight: 1, identifier: true},
	{field: fieldRollFull, weight: 1, identifier: true},
})

func normalizeWeights(keys []key) []key {
	total := 0.0
	for _, k := range keys {
		total += k.weight
	}
	for i := range keys {
		keys[i].weight /= total
	}
	return keys
}

type fieldValue struct {
	text string
	norm float64
}

// Index answers ranked fuzzy lookups over a fixed member list
type Index struct {
	members  []model.Member
	values   [][numFields]fieldValue
	textKeys []key
	opts     Options
}

// Build indexes members. The slice is retained and must not be modified afterwards.
func Build(members []model.Member, opts Options) *Index {
	ix := &Index{
		members:  members,
		values:   make([][numFields]fieldValue, len(members)),
		textKeys: textKeys(opts.Weights),
		opts:     opts,
	}

	for i, m := range members {
		raw := [numFields]string{
			fieldFirstName: m.FirstName,
			fieldLastName:  m.LastName,
			fieldFullName:  m.FullName,
			fieldRollShort: m.RollShort,
			fieldRollFull:  m.RollFull,
		}
		for f, v := range raw {
			if strings.TrimSpace(v) == "" {
				continue
			}
			ix.values[i][f] = fieldValue{text: fold(v), norm: fieldNorm(v)}
		}
	}

	return ix
}

// Len returns the number of indexed members
func (ix *Index) Len() int {
	return len(ix.members)
}

// Query returns up to MaxResults members matching q, best first.
// Queries of only digits and hyphens are matched against roll numbers only.
func (ix *Index) Query(q string) []Result {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < ix.opts.MinQueryLength {
		return []Result{}
	}

	if numericQuery.MatchString(q) {
		ix.opts.Metrics.SearchQueried(PathNumeric)
		return ix.run(numericPattern(q, ix.opts.RollPrefix), numericKeys, 1)
	}

	ix.opts.Metrics.SearchQueried(PathText)
	return ix.run(fold(q), ix.textKeys, ix.opts.MinMatchCharLength)
}

// numericPattern applies the rollShort normalization to a numeric query
func numericPattern(q, prefix string) string {
	p := normalize.ShortRoll(q, prefix)
	if p == "" {
		p = strings.ReplaceAll(q, "-", "")
	}
	return p
}

func (ix *Index) run(query string, keys []key, minMatch int) []Result {
	if query == "" {
		return []Result{}
	}

	p := newPattern(query)
	nameOpts := matchOptions{threshold: ix.opts.Threshold, distance: ix.opts.Distance, minMatchCharLength: minMatch}
	idOpts := matchOptions{threshold: ix.opts.IdentifierThreshold, distance: ix.opts.IdentifierDistance, minMatchCharLength: minMatch}

	results := make([]Result, 0)
	for i := range ix.members {
		matched := false
		total := 1.0

		for _, k := range keys {
			v := ix.values[i][k.field]
			if v.text == "" {
				continue
			}
			opts := nameOpts
			if k.identifier {
				opts = idOpts
			}
			ok, score := p.match(v.text, opts)
			if !ok {
				continue
			}
			matched = true
			if score == 0 {
				score = epsilon
			}
			total *= math.Pow(score, k.weight*v.norm)
		}

		if matched {
			results = append(results, Result{Member: ix.members[i], Score: total})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score < results[b].Score
	})

	if ix.opts.MaxResults > 0 && len(results) > ix.opts.MaxResults {
		results = results[:ix.opts.MaxResults]
	}
	return results
}

// fieldNorm dampens matches in long values: 1/sqrt(space-separated tokens), to 3 decimals
func fieldNorm(v string) float64 {
	tokens := len(strings.FieldsFunc(v, func(r rune) bool { return r == ' ' }))
	if tokens == 0 {
		return 1
	}
	return math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
}

// fold lower-cases s and strips combining accents
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
