package detection

import (
	"context"
	"regexp"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

// Sub-signal names produced by the bias detector.
const (
	SignalStereotypePhrases       = "stereotype_phrases"
	SignalGenderedLanguage        = "gendered_language"
	SignalAbsoluteGeneralizations = "absolute_generalizations"
	SignalLoadedLanguage          = "loaded_language"
)

var stereotypePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:those|you)\s+people\b`),
	regexp.MustCompile(`(?i)\btheir\s+kind\b`),
	regexp.MustCompile(`(?i)\btypical\s+(?:of\s+)?(?:a\s+)?\w+\b`),
	regexp.MustCompile(`(?i)\bwhat\s+do\s+you\s+expect\s+from\b`),
	regexp.MustCompile(`(?i)\b(?:they|these\s+people)\s+are\s+all\b`),
}

var genderedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:all|typical)\s+(?:men|women|boys|girls)\b`),
	regexp.MustCompile(`(?i)\b(?:men|women)\s+(?:are|can't|cannot|always|never)\b`),
	regexp.MustCompile(`(?i)\blike\s+a\s+(?:girl|man)\b`),
	regexp.MustCompile(`(?i)\bman\s+up\b`),
	regexp.MustCompile(`(?i)\bwoman's\s+(?:place|job|work)\b`),
}

var generalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:all|every|no)\s+[a-z]+s\s+(?:are|do|have|want)\b`),
	regexp.MustCompile(`(?i)\b(?:always|never)\s+trust\b`),
	regexp.MustCompile(`(?i)\beveryone\s+from\b`),
	regexp.MustCompile(`(?i)\bwithout\s+exception\b`),
}

var loadedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bobviously\s+(?:inferior|superior|better|worse)\b`),
	regexp.MustCompile(`(?i)\beveryone\s+knows\b`),
	regexp.MustCompile(`(?i)\bnaturally\s+(?:better|worse|suited)\b`),
	regexp.MustCompile(`(?i)\breal\s+(?:men|women)\b`),
}

// BiasDetector detects stereotyping, gendered framing, absolute
// generalizations and loaded language.
type BiasDetector struct {
	threshold float64
	weights   map[string]float64
}

// NewBiasDetector builds a detector from a config snapshot.
func NewBiasDetector(cfg config.DetectorConfig) *BiasDetector {
	return &BiasDetector{
		threshold: cfg.Threshold,
		weights:   copyWeights(cfg.Weights),
	}
}

// Type returns the risk category this detector covers
func (d *BiasDetector) Type() risk.Type {
	return risk.TypeBias
}

// Analyze runs bias detection against the given text.
func (d *BiasDetector) Analyze(ctx context.Context, text string, ac *risk.AnalysisContext) risk.DetectionResult {
	return guard(risk.TypeBias, func() risk.DetectionResult {
		subScores := map[string]float64{
			SignalStereotypePhrases:       scorePatterns(text, stereotypePatterns, 0.3),
			SignalGenderedLanguage:        scorePatterns(text, genderedPatterns, 0.25),
			SignalAbsoluteGeneralizations: scorePatterns(text, generalizationPatterns, 0.25),
			SignalLoadedLanguage:          scorePatterns(text, loadedPatterns, 0.25),
		}

		severity := combine(subScores, d.weights)
		factors := d.riskFactors(subScores)

		return risk.DetectionResult{
			Type:       risk.TypeBias,
			Severity:   severity,
			Confidence: corroborationConfidence(subScores),
			Detected:   severity > d.threshold,
			SubScores:  subScores,
			Factors:    factors,
			Analysis:   summarize("bias", subScores, factors),
		}
	})
}

func (d *BiasDetector) riskFactors(subScores map[string]float64) []string {
	var factors []string

	if subScores[SignalStereotypePhrases] > activationThreshold {
		factors = append(factors, "Stereotyping phrases detected")
	}
	if subScores[SignalGenderedLanguage] > activationThreshold {
		factors = append(factors, "Gendered framing detected")
	}
	if subScores[SignalAbsoluteGeneralizations] > activationThreshold {
		factors = append(factors, "Absolute generalizations about groups")
	}
	if subScores[SignalLoadedLanguage] > activationThreshold {
		factors = append(factors, "Loaded or prejudicial language")
	}

	return factors
}

// scorePatterns sums a fixed increment per pattern match and clamps.
func scorePatterns(text string, patterns []*regexp.Regexp, increment float64) float64 {
	score := 0.0
	for _, p := range patterns {
		score += increment * float64(len(p.FindAllStringIndex(text, -1)))
	}
	return risk.Clamp01(score)
}
