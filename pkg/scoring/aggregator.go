// Package scoring combines detector outputs into aggregated risk records
// and derives the single overall verdict for a request.
package scoring

import (
	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/detection"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

// Defaults for the overall verdict when no risk entries are present.
// Absence of detected risk is a meaningful, reportable outcome, not an
// undefined state.
const (
	cleanScore      = 0.1
	cleanConfidence = 0.9
)

// Aggregate filters detector results into risk entries for one pipeline
// side. A result is surfaced when the detector flagged it OR its severity
// crossed the per-category reporting threshold, which sits deliberately
// below the detection threshold so borderline signals still reach the
// audit trail.
//
// PII results get an additional promotion: if any PII categories were
// matched but the detector did not flag them, the result is promoted to
// detected when a sensitive-identifier category appears, when multiple
// distinct categories co-occur, or when severity clears the reporting bar.
// Promoted results carry severity of at least 0.4. A missed high-risk PII
// leak costs more than a false positive, so these categories get a lower
// bar on purpose.
func Aggregate(results []risk.DetectionResult, side risk.Side, thresholds config.ReportThresholds) []risk.Entry {
	var entries []risk.Entry

	for _, r := range results {
		severity := r.Severity
		detected := r.Detected

		if r.Type == risk.TypePII && !detected && len(r.Categories) > 0 {
			if promotePII(r, severity) {
				detected = true
				if severity < 0.4 {
					severity = 0.4
				}
				r.Detected = true
				r.Severity = severity
			}
		}

		if detected || severity > thresholds.For(r.Type) {
			entries = append(entries, risk.Entry{
				Type:       r.Type,
				Side:       side,
				Severity:   severity,
				Confidence: r.Confidence,
				Result:     r,
			})
		}
	}

	return entries
}

func promotePII(r risk.DetectionResult, severity float64) bool {
	distinct := make(map[string]bool, len(r.Categories))
	highRisk := false
	for _, category := range r.Categories {
		distinct[category] = true
		if detection.HighRiskPIICategories[category] {
			highRisk = true
		}
	}
	return highRisk || len(distinct) > 1 || severity > 0.15
}

// Overall derives the request verdict from all risk entries, input and
// output sides concatenated: maximum severity, mean confidence, level from
// the fixed cutoffs. No entries means a clean, high-confidence verdict.
func Overall(entries []risk.Entry) risk.OverallScore {
	if len(entries) == 0 {
		return risk.OverallScore{
			Score:      cleanScore,
			Level:      risk.LevelLow,
			Confidence: cleanConfidence,
		}
	}

	maxSeverity := 0.0
	confidenceSum := 0.0
	for _, e := range entries {
		if e.Severity > maxSeverity {
			maxSeverity = e.Severity
		}
		confidenceSum += e.Confidence
	}

	return risk.OverallScore{
		Score:      maxSeverity,
		Level:      risk.LevelForScore(maxSeverity),
		Confidence: confidenceSum / float64(len(entries)),
	}
}
