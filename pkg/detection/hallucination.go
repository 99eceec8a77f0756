package detection

import (
	"context"
	"regexp"
	"strings"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

// Sub-signal names produced by the hallucination detector.
const (
	SignalContextDivergence     = "context_divergence"
	SignalOverconfidence        = "overconfidence"
	SignalFabricatedSpecificity = "fabricated_specificity"
	SignalContradictionMarkers  = "contradiction_markers"
)

var overconfidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdefinitely\b`),
	regexp.MustCompile(`(?i)\bcertainly\b`),
	regexp.MustCompile(`(?i)\bwithout\s+a\s+doubt\b`),
	regexp.MustCompile(`(?i)\b100%\s+(?:sure|certain|accurate)\b`),
	regexp.MustCompile(`(?i)\bproven\s+fact\b`),
	regexp.MustCompile(`(?i)\bguaranteed\b`),
	regexp.MustCompile(`(?i)\bi\s+am\s+(?:absolutely\s+)?certain\b`),
}

var fabricationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bstudies\s+(?:show|prove|confirm)\b`),
	regexp.MustCompile(`(?i)\bresearch\s+(?:shows|proves|confirms)\b`),
	regexp.MustCompile(`(?i)\baccording\s+to\s+(?:experts|scientists|researchers)\b`),
	regexp.MustCompile(`(?i)\bscientists\s+agree\b`),
	regexp.MustCompile(`(?i)\bexactly\s+\d`),
}

// statPattern matches precise-looking figures; unexplained precision often
// accompanies fabricated claims.
var statPattern = regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?%`)

var contradictionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bactually,?\s+no\b`),
	regexp.MustCompile(`(?i)\bcorrection:`),
	regexp.MustCompile(`(?i)\bon\s+second\s+thought\b`),
	regexp.MustCompile(`(?i)\bi\s+was\s+wrong\b`),
	regexp.MustCompile(`(?i)\bboth\s+true\s+and\s+false\b`),
}

// HallucinationDetector flags responses that assert more than the
// conversation supports: divergence from the prompt context, overconfident
// phrasing, fabricated-looking specificity and self-contradiction. This is
// a lightweight heuristic, not factual verification.
type HallucinationDetector struct {
	threshold float64
	weights   map[string]float64
}

// NewHallucinationDetector builds a detector from a config snapshot.
func NewHallucinationDetector(cfg config.DetectorConfig) *HallucinationDetector {
	return &HallucinationDetector{
		threshold: cfg.Threshold,
		weights:   copyWeights(cfg.Weights),
	}
}

// Type returns the risk category this detector covers
func (d *HallucinationDetector) Type() risk.Type {
	return risk.TypeHallucination
}

// Analyze runs hallucination detection against the given text. When ac
// carries the originating user input, context divergence is measured
// against it; without context that sub-signal stays zero.
func (d *HallucinationDetector) Analyze(ctx context.Context, text string, ac *risk.AnalysisContext) risk.DetectionResult {
	return guard(risk.TypeHallucination, func() risk.DetectionResult {
		contextInput := ""
		if ac != nil {
			contextInput = ac.Input
		}

		subScores := map[string]float64{
			SignalContextDivergence:     d.detectContextDivergence(text, contextInput),
			SignalOverconfidence:        scorePatterns(text, overconfidencePatterns, 0.2),
			SignalFabricatedSpecificity: d.detectFabricatedSpecificity(text),
			SignalContradictionMarkers:  scorePatterns(text, contradictionPatterns, 0.25),
		}

		severity := combine(subScores, d.weights)
		factors := d.riskFactors(subScores)

		return risk.DetectionResult{
			Type:       risk.TypeHallucination,
			Severity:   severity,
			Confidence: corroborationConfidence(subScores),
			Detected:   severity > d.threshold,
			SubScores:  subScores,
			Factors:    factors,
			Analysis:   summarize("hallucination", subScores, factors),
		}
	})
}

// detectContextDivergence measures how little of the response's content
// vocabulary overlaps with the prompt. Short responses and missing context
// yield zero rather than a spurious signal.
func (d *HallucinationDetector) detectContextDivergence(text, contextInput string) float64 {
	if contextInput == "" {
		return 0
	}

	responseWords := contentWords(text)
	if len(responseWords) < 5 {
		return 0
	}
	inputWords := contentWords(contextInput)
	if len(inputWords) == 0 {
		return 0
	}

	inputSet := make(map[string]bool, len(inputWords))
	for _, w := range inputWords {
		inputSet[w] = true
	}

	shared := 0
	for _, w := range responseWords {
		if inputSet[w] {
			shared++
		}
	}

	overlap := float64(shared) / float64(len(responseWords))
	if overlap >= 0.5 {
		return 0
	}
	return risk.Clamp01((0.5 - overlap) * 1.4)
}

func (d *HallucinationDetector) detectFabricatedSpecificity(text string) float64 {
	score := scorePatterns(text, fabricationPatterns, 0.25)
	score += 0.15 * float64(len(statPattern.FindAllStringIndex(text, -1)))
	return risk.Clamp01(score)
}

func (d *HallucinationDetector) riskFactors(subScores map[string]float64) []string {
	var factors []string

	if subScores[SignalContextDivergence] > 0.3 {
		factors = append(factors, "Response diverges from prompt context")
	}
	if subScores[SignalOverconfidence] > activationThreshold {
		factors = append(factors, "Overconfident phrasing detected")
	}
	if subScores[SignalFabricatedSpecificity] > activationThreshold {
		factors = append(factors, "Unsupported specific claims or citations")
	}
	if subScores[SignalContradictionMarkers] > activationThreshold {
		factors = append(factors, "Self-contradiction markers present")
	}

	return factors
}

// contentWords lowercases the text and keeps words of four or more
// letters, dropping punctuation.
func contentWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	var words []string
	for _, f := range fields {
		if len(f) >= 4 {
			words = append(words, f)
		}
	}
	return words
}
