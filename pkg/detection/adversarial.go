package detection

import (
	"context"
	"regexp"
	"strings"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

// Sub-signal names produced by the adversarial detector.
const (
	SignalPromptInjection      = "prompt_injection"
	SignalJailbreak            = "jailbreak"
	SignalObfuscation          = "obfuscation"
	SignalSocialEngineering    = "social_engineering"
	SignalEncodingAttacks      = "encoding_attacks"
	SignalStatisticalAnomalies = "statistical_anomalies"
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(?:previous|all|the)\s+(?:instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)forget\s+(?:everything|all|previous)`),
	regexp.MustCompile(`(?i)new\s+(?:instructions|task|role|persona)`),
	regexp.MustCompile(`(?i)act\s+as\s+(?:if|a)`),
	regexp.MustCompile(`(?i)pretend\s+(?:to\s+be|you\s+are)`),
	regexp.MustCompile(`(?i)roleplay\s+as`),
	regexp.MustCompile(`(?i)system\s*:\s*`),
	regexp.MustCompile(`(?i)assistant\s*:\s*`),
	regexp.MustCompile(`(?i)override\s+(?:security|safety|guidelines)`),
	regexp.MustCompile(`(?i)bypass\s+(?:filter|safety|restriction)`),
	regexp.MustCompile(`(?i)disregard\s+(?:previous|safety|rules)`),
	regexp.MustCompile(`(?i)switch\s+to\s+(?:developer|admin|god)\s+mode`),
	regexp.MustCompile(`(?i)enable\s+(?:developer|debug|admin)\s+mode`),
}

// leakKeywords cover attempts to extract the hidden system prompt.
var leakKeywords = []string{"system prompt", "initial instructions", "base prompt"}

var exfiltrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)reveal\s+(?:your\s+)?(?:system|hidden|secret)\s+(?:prompt|instructions)`),
	regexp.MustCompile(`(?i)(?:print|repeat|show)\s+(?:your\s+)?(?:instructions|prompt)`),
}

var jailbreakIndicators = []string{
	"dan", "do anything now", "developer mode", "evil mode",
	"unrestricted", "uncensored", "no limitations", "no restrictions",
	"break character", "ignore guidelines", "harmful content",
	"jailbreak", "override safety", "disable filters",
}

var roleplayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)in\s+this\s+hypothetical`),
	regexp.MustCompile(`(?i)imagine\s+you\s+are`),
	regexp.MustCompile(`(?i)pretend\s+we\s+are`),
	regexp.MustCompile(`(?i)for\s+educational\s+purposes`),
}

var obfuscationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-z]\s+[a-z]\s+[a-z]`), // letter spacing
	regexp.MustCompile(`[^\w\s]{3,}`),           // special character sequences
	regexp.MustCompile(`[0-9]{3,}`),             // number sequences used as separators
}

var socialEngineeringKeywords = []string{
	"urgent", "emergency", "confidential", "secret", "classified",
	"administrator", "sudo", "root", "admin access", "privilege",
	"override", "bypass", "hack", "exploit", "vulnerability",
}

var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)immediately`),
	regexp.MustCompile(`(?i)right\s+now`),
	regexp.MustCompile(`(?i)asap`),
	regexp.MustCompile(`(?i)time\s+sensitive`),
	regexp.MustCompile(`(?i)deadline`),
	regexp.MustCompile(`(?i)expires?`),
}

var authorityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i\s+am\s+your\s+(?:creator|developer|administrator)`),
	regexp.MustCompile(`(?i)this\s+is\s+(?:official|authorized|legitimate)`),
	regexp.MustCompile(`(?i)by\s+order\s+of`),
}

var encodingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\\x[0-9a-fA-F]{2}`),        // hex escapes
	regexp.MustCompile(`\\u[0-9a-fA-F]{4}`),        // unicode escapes
	regexp.MustCompile(`%[0-9a-fA-F]{2}`),          // URL encoding
	regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`), // base64-like blobs
}

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(union|select|insert|delete|drop|update)\s+`),
	regexp.MustCompile(`(?i)'\s*or\s*'?1'?\s*=\s*'?1`),
	regexp.MustCompile(`(?i);\s*(drop|delete|truncate)`),
}

var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)document\.`),
}

// AdversarialDetector detects inputs crafted to manipulate the model:
// prompt injection, jailbreaks, obfuscation, social engineering, encoded
// payloads and statistically anomalous text.
type AdversarialDetector struct {
	threshold float64
	weights   map[string]float64
}

// NewAdversarialDetector builds a detector from a config snapshot.
func NewAdversarialDetector(cfg config.DetectorConfig) *AdversarialDetector {
	return &AdversarialDetector{
		threshold: cfg.Threshold,
		weights:   copyWeights(cfg.Weights),
	}
}

// Type returns the risk category this detector covers
func (d *AdversarialDetector) Type() risk.Type {
	return risk.TypeAdversarial
}

// Analyze runs adversarial detection against the given text.
func (d *AdversarialDetector) Analyze(ctx context.Context, text string, ac *risk.AnalysisContext) risk.DetectionResult {
	return guard(risk.TypeAdversarial, func() risk.DetectionResult {
		subScores := map[string]float64{
			SignalPromptInjection:      d.detectPromptInjection(text),
			SignalJailbreak:            d.detectJailbreak(text),
			SignalObfuscation:          d.detectObfuscation(text),
			SignalSocialEngineering:    d.detectSocialEngineering(text),
			SignalEncodingAttacks:      d.detectEncodingAttacks(text),
			SignalStatisticalAnomalies: d.detectStatisticalAnomalies(text),
		}

		severity := combine(subScores, d.weights)
		factors := d.riskFactors(text, subScores)

		return risk.DetectionResult{
			Type:       risk.TypeAdversarial,
			Severity:   severity,
			Confidence: corroborationConfidence(subScores),
			Detected:   severity > d.threshold,
			SubScores:  subScores,
			Factors:    factors,
			Analysis:   summarize("adversarial", subScores, factors),
		}
	})
}

func (d *AdversarialDetector) detectPromptInjection(text string) float64 {
	score := 0.0

	for _, p := range injectionPatterns {
		score += 0.4 * float64(len(p.FindAllStringIndex(text, -1)))
	}

	lower := strings.ToLower(text)
	for _, keyword := range leakKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.5
		}
	}

	for _, p := range exfiltrationPatterns {
		score += 0.4 * float64(len(p.FindAllStringIndex(text, -1)))
	}

	return risk.Clamp01(score)
}

func (d *AdversarialDetector) detectJailbreak(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0

	for _, indicator := range jailbreakIndicators {
		if containsWord(lower, indicator) {
			score += 0.3
		}
	}

	for _, p := range roleplayPatterns {
		if p.MatchString(text) {
			score += 0.2
		}
	}

	return risk.Clamp01(score)
}

func (d *AdversarialDetector) detectObfuscation(text string) float64 {
	score := 0.0

	for _, p := range obfuscationPatterns {
		score += 0.2 * float64(len(p.FindAllStringIndex(text, -1)))
	}

	if longestRun(text) >= 5 {
		score += 0.2
	}

	total, _, _ := runeStats(text)
	if total > 0 {
		nonASCII := 0
		symbols := 0
		for _, r := range text {
			if r > 127 {
				nonASCII++
			}
			if !isAlnum(r) && r != ' ' && r != '\t' && r != '\n' && r != '\r' {
				symbols++
			}
		}
		if float64(nonASCII) > float64(total)*0.1 {
			score += 0.3
		}
		if float64(symbols) > float64(total)*0.2 {
			score += 0.2
		}
	}

	return risk.Clamp01(score)
}

func (d *AdversarialDetector) detectSocialEngineering(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0

	for _, keyword := range socialEngineeringKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.15
		}
	}

	for _, p := range urgencyPatterns {
		if p.MatchString(text) {
			score += 0.1
		}
	}

	for _, p := range authorityPatterns {
		if p.MatchString(text) {
			score += 0.3
		}
	}

	return risk.Clamp01(score)
}

func (d *AdversarialDetector) detectEncodingAttacks(text string) float64 {
	score := 0.0

	for _, p := range encodingPatterns {
		score += 0.2 * float64(len(p.FindAllStringIndex(text, -1)))
	}

	for _, p := range sqlPatterns {
		if p.MatchString(text) {
			score += 0.4
		}
	}

	for _, p := range scriptPatterns {
		if p.MatchString(text) {
			score += 0.3
		}
	}

	return risk.Clamp01(score)
}

// detectStatisticalAnomalies flags texts whose character distribution does
// not look like natural language: very low diversity, a single dominant
// character, or entropy outside the band natural text occupies. Low entropy
// marks repetition or templated attacks, very high entropy marks
// random-looking payloads.
func (d *AdversarialDetector) detectStatisticalAnomalies(text string) float64 {
	total, distinct, dominant := runeStats(text)
	if total < 10 {
		return 0
	}

	score := 0.0

	if float64(distinct) < float64(total)*0.1 {
		score += 0.3
	}

	if float64(dominant) > float64(total)*0.5 {
		score += 0.4
	}

	entropy := shannonEntropy(text)
	if entropy < 2.0 {
		score += 0.3
	} else if entropy > 7.0 {
		score += 0.2
	}

	return risk.Clamp01(score)
}

func (d *AdversarialDetector) riskFactors(text string, subScores map[string]float64) []string {
	var factors []string

	if subScores[SignalPromptInjection] > 0.3 {
		factors = append(factors, "Potential prompt injection detected")
	}
	if subScores[SignalJailbreak] > 0.3 {
		factors = append(factors, "Jailbreak attempt indicators found")
	}
	if subScores[SignalObfuscation] > 0.4 {
		factors = append(factors, "Text obfuscation techniques detected")
	}
	if subScores[SignalSocialEngineering] > 0.3 {
		factors = append(factors, "Social engineering patterns identified")
	}
	if subScores[SignalEncodingAttacks] > 0.2 {
		factors = append(factors, "Encoded payloads or injection attempts")
	}
	if len(text) > longInputLimit {
		factors = append(factors, "Unusually long input (potential resource exhaustion)")
	}

	return factors
}

// containsWord reports whether lower contains needle on word boundaries
// for single-word needles, or as a substring for phrases.
func containsWord(lower, needle string) bool {
	if strings.ContainsRune(needle, ' ') {
		return strings.Contains(lower, needle)
	}
	idx := 0
	for {
		i := strings.Index(lower[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isAlnum(rune(lower[start-1]))
		afterOK := end == len(lower) || !isAlnum(rune(lower[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = end
	}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
