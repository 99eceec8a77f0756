package detection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

func newBias(t *testing.T) *BiasDetector {
	t.Helper()
	return NewBiasDetector(config.Default().Bias)
}

func TestBiasDetectsStereotyping(t *testing.T) {
	detector := newBias(t)

	result := detector.Analyze(context.Background(), "Those people are all the same, what do you expect from their kind", nil)

	assert.Equal(t, risk.TypeBias, result.Type)
	assert.Greater(t, result.SubScores[SignalStereotypePhrases], 0.5)
	assert.Contains(t, result.Factors, "Stereotyping phrases detected")
}

func TestBiasDetectsGenderedLanguage(t *testing.T) {
	detector := newBias(t)

	result := detector.Analyze(context.Background(), "Women can't do this job, real men know that", nil)

	assert.Greater(t, result.SubScores[SignalGenderedLanguage], 0.2)
	assert.Greater(t, result.SubScores[SignalLoadedLanguage], 0.2)
}

func TestBiasDetectsGeneralizations(t *testing.T) {
	detector := newBias(t)

	result := detector.Analyze(context.Background(), "All politicians are corrupt, never trust anyone from that city", nil)

	assert.Greater(t, result.SubScores[SignalAbsoluteGeneralizations], 0.2)
	assert.Contains(t, result.Factors, "Absolute generalizations about groups")
}

func TestBiasBenignText(t *testing.T) {
	detector := newBias(t)

	result := detector.Analyze(context.Background(), "The committee reviewed several proposals before deciding", nil)

	assert.False(t, result.Detected)
	assert.Equal(t, 0.0, result.Severity)
	assert.Empty(t, result.Factors)
}

func TestBiasSeverityWithinBounds(t *testing.T) {
	detector := newBias(t)

	result := detector.Analyze(context.Background(),
		"Those people are all lazy, what do you expect from their kind. All men are the same. Everyone knows women can't drive. Never trust anyone, without exception.", nil)

	assert.True(t, result.Detected)
	assert.LessOrEqual(t, result.Severity, 1.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
}
