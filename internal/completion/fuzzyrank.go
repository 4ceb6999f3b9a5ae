package completion

import "github.com/sahilm/fuzzy"

// candidateSource adapts a []Candidate to fuzzy.Source so sahilm/fuzzy can
// score them against a partial word without copying the slice.
type candidateSource []Candidate

func (c candidateSource) String(i int) string { return c[i].Value }
func (c candidateSource) Len() int            { return len(c) }

// RankCandidates orders candidates by fuzzy match quality against partial,
// the token being completed. Ranking is the one piece of completion this
// module does perform; presentation (columns, colors, paging) is not.
func RankCandidates(candidates []Candidate, partial string) []Candidate {
	if partial == "" {
		return candidates
	}
	matches := fuzzy.FindFrom(partial, candidateSource(candidates))
	ranked := make([]Candidate, len(matches))
	for i, m := range matches {
		ranked[i] = candidates[m.Index]
	}
	return ranked
}
