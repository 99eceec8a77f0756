package detection

import (
	"context"
	"regexp"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

// Sub-signal names produced by the PII detector.
const (
	SignalDirectIdentifiers  = "direct_identifiers"
	SignalContactInfo        = "contact_info"
	SignalPersonalDetails    = "personal_details"
	SignalNetworkIdentifiers = "network_identifiers"
)

// HighRiskPIICategories is the sensitive-identifier class. A match in any
// of these categories carries asymmetric cost: a missed leak is worse than
// a false positive, so the aggregator promotes these regardless of raw
// score.
var HighRiskPIICategories = map[string]bool{
	"ssn":          true,
	"credit_card":  true,
	"bank_account": true,
	"passport":     true,
}

// piiPattern associates a PII category with the sub-signal family it
// belongs to. The slice is ordered so detection output is deterministic.
type piiPattern struct {
	category string
	signal   string
	pattern  *regexp.Regexp
}

var piiPatterns = []piiPattern{
	{"ssn", SignalDirectIdentifiers, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"credit_card", SignalDirectIdentifiers, regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)},
	{"bank_account", SignalDirectIdentifiers, regexp.MustCompile(`(?i)\b(?:account|acct)\s*(?:number|no\.?|#)\s*:?\s*\d{6,17}\b`)},
	{"passport", SignalDirectIdentifiers, regexp.MustCompile(`(?i)\bpassport\s*(?:number|no\.?|#)?\s*:?\s*[A-Z]?\d{6,9}\b`)},
	{"email", SignalContactInfo, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"phone", SignalContactInfo, regexp.MustCompile(`\b(\+\d{1,2}\s)?\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}\b`)},
	{"street_address", SignalContactInfo, regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z][A-Za-z\s]{2,30}\s(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`)},
	{"date_of_birth", SignalPersonalDetails, regexp.MustCompile(`(?i)\b(?:born\s+on|date\s+of\s+birth|dob)\b[:\s]*\d{1,4}[-/]\d{1,2}[-/]\d{1,4}`)},
	{"self_identification", SignalPersonalDetails, regexp.MustCompile(`(?i)\bmy\s+name\s+is\s+[A-Z][a-z]+`)},
	{"ip_address", SignalNetworkIdentifiers, regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},
	{"mac_address", SignalNetworkIdentifiers, regexp.MustCompile(`\b[0-9A-Fa-f]{2}(?::[0-9A-Fa-f]{2}){5}\b`)},
}

// PIIDetector detects personally identifiable information. Detection is
// pattern-based and heuristic; it gives no cryptographic guarantee of
// catching every identifier.
type PIIDetector struct {
	threshold float64
	weights   map[string]float64
}

// NewPIIDetector builds a detector from a config snapshot.
func NewPIIDetector(cfg config.DetectorConfig) *PIIDetector {
	return &PIIDetector{
		threshold: cfg.Threshold,
		weights:   copyWeights(cfg.Weights),
	}
}

// Type returns the risk category this detector covers
func (d *PIIDetector) Type() risk.Type {
	return risk.TypePII
}

// Analyze runs PII detection against the given text. The result's
// Categories field lists every PII category that matched, which the
// aggregator uses for its promotion rule.
func (d *PIIDetector) Analyze(ctx context.Context, text string, ac *risk.AnalysisContext) risk.DetectionResult {
	return guard(risk.TypePII, func() risk.DetectionResult {
		subScores := map[string]float64{
			SignalDirectIdentifiers:  0,
			SignalContactInfo:        0,
			SignalPersonalDetails:    0,
			SignalNetworkIdentifiers: 0,
		}

		var categories []string
		for _, pp := range piiPatterns {
			matches := len(pp.pattern.FindAllStringIndex(text, -1))
			if matches == 0 {
				continue
			}
			categories = append(categories, pp.category)
			// First match of a category counts full weight within its
			// family, repeats add a smaller increment.
			subScores[pp.signal] += 0.4 + 0.1*float64(matches-1)
		}
		for signal, score := range subScores {
			subScores[signal] = risk.Clamp01(score)
		}

		severity := combine(subScores, d.weights)
		factors := d.riskFactors(text, categories, subScores)

		return risk.DetectionResult{
			Type:       risk.TypePII,
			Severity:   severity,
			Confidence: corroborationConfidence(subScores),
			Detected:   severity > d.threshold,
			SubScores:  subScores,
			Factors:    factors,
			Analysis:   summarize("PII", subScores, factors),
			Categories: categories,
		}
	})
}

func (d *PIIDetector) riskFactors(text string, categories []string, subScores map[string]float64) []string {
	var factors []string

	for _, category := range categories {
		if HighRiskPIICategories[category] {
			factors = append(factors, "Sensitive identifier detected: "+category)
		}
	}
	if subScores[SignalContactInfo] > activationThreshold {
		factors = append(factors, "Contact information present")
	}
	if subScores[SignalPersonalDetails] > activationThreshold {
		factors = append(factors, "Personal details present")
	}
	if subScores[SignalNetworkIdentifiers] > activationThreshold {
		factors = append(factors, "Network identifiers present")
	}
	if len(text) > longInputLimit {
		factors = append(factors, "Unusually long input (potential resource exhaustion)")
	}

	return factors
}
