// Package detection implements the four risk signal detectors. Each
// detector is an immutable value built from a configuration snapshot,
// computes several independent sub-signal scores in [0,1], combines them
// with a fixed weight table and derives confidence from how many sub-signal
// families corroborate each other. Detectors hold no per-call state and are
// safe to invoke concurrently.
package detection

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/run-bigpig/riskguard/pkg/risk"
)

const (
	// activationThreshold is the sub-signal score above which a family
	// counts as corroborating evidence for the confidence ladder.
	activationThreshold = 0.2

	// longInputLimit is the character count past which an input is
	// flagged as unusually long.
	longInputLimit = 5000
)

// Detector analyzes a text for one risk category. Analyze never panics
// past its boundary; internal failures yield a degraded zero-valued
// result instead.
type Detector interface {
	// Type returns the risk category this detector covers
	Type() risk.Type

	// Analyze runs detection against the given text. ac may be nil.
	Analyze(ctx context.Context, text string, ac *risk.AnalysisContext) risk.DetectionResult
}

// guard converts any panic inside fn into the degraded result variant.
// Detector failure is "no signal", never a pipeline failure.
func guard(t risk.Type, fn func() risk.DetectionResult) (result risk.DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = risk.DegradedResult(t, fmt.Sprintf("%v", r))
		}
	}()
	return fn()
}

// combine applies the weight table to the sub-signal scores and clamps.
func combine(subScores, weights map[string]float64) float64 {
	total := 0.0
	for name, score := range subScores {
		total += score * weights[name]
	}
	return risk.Clamp01(total)
}

// corroborationConfidence implements the shared confidence contract:
// confidence grows with the number of sub-signal families that individually
// exceed the activation threshold, not with the magnitude of any single one.
func corroborationConfidence(subScores map[string]float64) float64 {
	active := 0
	for _, score := range subScores {
		if score > activationThreshold {
			active++
		}
	}

	switch {
	case active >= 3:
		return 0.9
	case active == 2:
		return 0.8
	case active == 1:
		return 0.7
	default:
		return 0.6
	}
}

// summarize builds the free-text analysis summary from the sub-signal
// scores and risk factors. Keys are sorted so identical inputs always
// produce identical summaries.
func summarize(label string, subScores map[string]float64, factors []string) string {
	anyActive := false
	for _, score := range subScores {
		if score > activationThreshold {
			anyActive = true
			break
		}
	}
	if !anyActive {
		return fmt.Sprintf("No significant %s patterns detected.", label)
	}

	var high []string
	for name, score := range subScores {
		if score > 0.5 {
			high = append(high, name)
		}
	}
	sort.Strings(high)

	var parts []string
	if len(high) > 0 {
		parts = append(parts, "High-risk categories: "+strings.Join(high, ", "))
	}
	if len(factors) > 0 {
		parts = append(parts, "Risk factors: "+strings.Join(factors, "; "))
	}
	return strings.Join(parts, "; ")
}

// shannonEntropy computes the Shannon entropy of the rune distribution.
func shannonEntropy(text string) float64 {
	if text == "" {
		return 0
	}

	freq := make(map[rune]int)
	total := 0
	for _, r := range text {
		freq[r]++
		total++
	}

	entropy := 0.0
	for _, count := range freq {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// runeStats returns the number of runes, distinct runes and the count of
// the most frequent rune, case-folded.
func runeStats(text string) (total, distinct, dominant int) {
	freq := make(map[rune]int)
	for _, r := range strings.ToLower(text) {
		freq[r]++
		total++
	}
	distinct = len(freq)
	for _, count := range freq {
		if count > dominant {
			dominant = count
		}
	}
	return total, distinct, dominant
}

// longestRun returns the length of the longest run of one repeated rune.
func longestRun(text string) int {
	longest, current := 0, 0
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = r
	}
	return longest
}

// copyWeights snapshots a weight table so the detector stays valid even if
// the originating config map is modified by the caller afterwards.
func copyWeights(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	return out
}
