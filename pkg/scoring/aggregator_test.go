package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

func TestAggregateIncludesDetectedResults(t *testing.T) {
	results := []risk.DetectionResult{
		{Type: risk.TypeAdversarial, Severity: 0.35, Confidence: 0.7, Detected: true},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Len(t, entries, 1)
	assert.Equal(t, risk.TypeAdversarial, entries[0].Type)
	assert.Equal(t, risk.SideInput, entries[0].Side)
	assert.Equal(t, 0.35, entries[0].Severity)
}

func TestAggregateFiltersBelowReportThreshold(t *testing.T) {
	results := []risk.DetectionResult{
		{Type: risk.TypeAdversarial, Severity: 0.2, Confidence: 0.6},
		{Type: risk.TypeBias, Severity: 0.1, Confidence: 0.6},
		{Type: risk.TypeHallucination, Severity: 0.25, Confidence: 0.6},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Empty(t, entries)
}

func TestAggregateSurfacesUndetectedAboveThreshold(t *testing.T) {
	// Reporting sits below detection so borderline signals still reach the
	// audit trail.
	results := []risk.DetectionResult{
		{Type: risk.TypeHallucination, Severity: 0.35, Confidence: 0.7, Detected: false},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Len(t, entries, 1)
	assert.False(t, entries[0].Result.Detected)
}

func TestAggregatePromotesHighRiskPII(t *testing.T) {
	results := []risk.DetectionResult{
		{Type: risk.TypePII, Severity: 0.16, Confidence: 0.7, Categories: []string{"ssn"}},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Len(t, entries, 1)
	assert.Equal(t, 0.4, entries[0].Severity)
	assert.True(t, entries[0].Result.Detected)
}

func TestAggregatePromotesMultipleCategories(t *testing.T) {
	// Two low-risk categories together get promoted even at low severity.
	results := []risk.DetectionResult{
		{Type: risk.TypePII, Severity: 0.1, Confidence: 0.7, Categories: []string{"email", "phone"}},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Len(t, entries, 1)
	assert.Equal(t, 0.4, entries[0].Severity)
	assert.True(t, entries[0].Result.Detected)
}

func TestAggregateSingleLowRiskCategoryNotPromoted(t *testing.T) {
	results := []risk.DetectionResult{
		{Type: risk.TypePII, Severity: 0.1, Confidence: 0.7, Categories: []string{"email"}},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Empty(t, entries)
}

func TestAggregatePromotionKeepsHigherSeverity(t *testing.T) {
	results := []risk.DetectionResult{
		{Type: risk.TypePII, Severity: 0.6, Confidence: 0.8, Categories: []string{"ssn", "email"}},
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Len(t, entries, 1)
	assert.Equal(t, 0.6, entries[0].Severity)
}

func TestAggregateDegradedResultExcluded(t *testing.T) {
	results := []risk.DetectionResult{
		risk.DegradedResult(risk.TypeAdversarial, "detector panic"),
	}

	entries := Aggregate(results, risk.SideInput, config.Default().InputReport)

	assert.Empty(t, entries)
}

func TestOverallEmptyEntriesIsClean(t *testing.T) {
	overall := Overall(nil)

	assert.Equal(t, 0.1, overall.Score)
	assert.Equal(t, risk.LevelLow, overall.Level)
	assert.Equal(t, 0.9, overall.Confidence)
}

func TestOverallTakesMaxSeverityMeanConfidence(t *testing.T) {
	entries := []risk.Entry{
		{Type: risk.TypeAdversarial, Severity: 0.75, Confidence: 0.7},
		{Type: risk.TypeBias, Severity: 0.3, Confidence: 0.9},
	}

	overall := Overall(entries)

	assert.Equal(t, 0.75, overall.Score)
	assert.Equal(t, risk.LevelHigh, overall.Level)
	assert.InDelta(t, 0.8, overall.Confidence, 1e-9)
}

func TestOverallLevelCutoffs(t *testing.T) {
	cases := []struct {
		severity float64
		level    risk.Level
	}{
		{0.39, risk.LevelLow},
		{0.4, risk.LevelMedium},
		{0.69, risk.LevelMedium},
		{0.7, risk.LevelHigh},
	}

	for _, tc := range cases {
		overall := Overall([]risk.Entry{{Severity: tc.severity, Confidence: 0.7}})
		assert.Equal(t, tc.level, overall.Level, "severity %v", tc.severity)
	}
}
