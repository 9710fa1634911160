// Package affinity scores category overlap between a task and a
// performer's completed-task history as TF-IDF cosine similarity.
//
// The IDF corpus is exactly the two documents being compared, so
// document frequency is 1 or 2. A term present in both documents would
// get the mathematically correct IDF of ln(2/2)=0, erasing the shared
// signal; instead it gets the fixed constant 0.1. With a two-document
// corpus IDF therefore acts as a shared/not-shared marker rather than
// a rarity measure. Downstream scores depend on these exact numbers,
// so keep them as they are; a corpus-wide IDF table is a possible
// future replacement, not a drop-in fix.
package affinity

import (
	"math"
	"strings"
)

// sharedTermIDF replaces ln(2/2)=0 for terms present in both documents.
const sharedTermIDF = 0.1

// Vector is a sparse term -> weight mapping.
type Vector map[string]float64

// Normalize lowercases and trims tags and drops empties. Both the task
// tags and the history tags pass through here before scoring.
func Normalize(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Score returns the cosine similarity in [0,1] between a task's
// category tags and a performer's history. queryTags is the task's tag
// sequence; historyTags is the flattened per-task category sequence
// (each task contributes each distinct category once) and taskCount is
// the number of completed tasks, which is the history TF denominator.
func Score(queryTags, historyTags []string, taskCount int) float64 {
	query := Normalize(queryTags)
	hist := Normalize(historyTags)
	if len(query) == 0 || len(hist) == 0 || taskCount <= 0 {
		return 0
	}

	queryTF := termFrequencies(query, float64(len(query)))
	histTF := termFrequencies(hist, float64(taskCount))

	qv := weigh(queryTF, histTF)
	hv := weigh(histTF, queryTF)

	return Cosine(qv, hv)
}

// termFrequencies counts occurrences and divides by the given
// denominator: token count for the query document, completed-task
// count for the history document.
func termFrequencies(tags []string, denom float64) Vector {
	tf := make(Vector, len(tags))
	for _, t := range tags {
		tf[t]++
	}
	for t, n := range tf {
		tf[t] = n / denom
	}
	return tf
}

// weigh turns term frequencies into TF-IDF weights against the
// two-document corpus formed with other.
func weigh(tf, other Vector) Vector {
	v := make(Vector, len(tf))
	for t, f := range tf {
		idf := math.Log(2) // df=1, term in this document only
		if _, shared := other[t]; shared {
			idf = sharedTermIDF // df=2
		}
		v[t] = f * idf
	}
	return v
}

// Cosine is the similarity between two sparse vectors: dot product over
// the union of terms divided by the product of Euclidean norms. A zero
// norm or non-finite result yields 0.
func Cosine(a, b Vector) float64 {
	var dot, normA, normB float64
	for t, wa := range a {
		normA += wa * wa
		if wb, ok := b[t]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	// Floating error can nudge identical documents past 1.
	return math.Max(0, math.Min(1, sim))
}
