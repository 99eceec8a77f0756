package detection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/risk"
)

func newPII(t *testing.T) *PIIDetector {
	t.Helper()
	return NewPIIDetector(config.Default().PII)
}

func TestPIIDetectsSSN(t *testing.T) {
	detector := newPII(t)

	result := detector.Analyze(context.Background(), "My SSN is 123-45-6789", nil)

	assert.Equal(t, risk.TypePII, result.Type)
	assert.Contains(t, result.Categories, "ssn")
	assert.Greater(t, result.SubScores[SignalDirectIdentifiers], 0.0)
	assert.Contains(t, result.Factors, "Sensitive identifier detected: ssn")
}

func TestPIIDetectsContactInfo(t *testing.T) {
	detector := newPII(t)

	result := detector.Analyze(context.Background(), "Reach me at jane@example.com or (555) 123-4567", nil)

	assert.Contains(t, result.Categories, "email")
	assert.Contains(t, result.Categories, "phone")
	assert.InDelta(t, 0.8, result.SubScores[SignalContactInfo], 1e-9)
	assert.Contains(t, result.Factors, "Contact information present")
}

func TestPIIDetectsCreditCard(t *testing.T) {
	detector := newPII(t)

	for _, text := range []string{
		"Card: 4111 1111 1111 1111",
		"Card: 4111-1111-1111-1111",
		"Card: 4111111111111111",
	} {
		result := detector.Analyze(context.Background(), text, nil)
		assert.Contains(t, result.Categories, "credit_card", text)
	}
}

func TestPIIDetectsNetworkIdentifiers(t *testing.T) {
	detector := newPII(t)

	result := detector.Analyze(context.Background(), "The server at 192.168.1.1 has MAC aa:bb:cc:dd:ee:ff", nil)

	assert.Contains(t, result.Categories, "ip_address")
	assert.Contains(t, result.Categories, "mac_address")
	assert.Contains(t, result.Factors, "Network identifiers present")
}

func TestPIIBenignText(t *testing.T) {
	detector := newPII(t)

	result := detector.Analyze(context.Background(), "The weather is lovely today", nil)

	assert.False(t, result.Detected)
	assert.Empty(t, result.Categories)
	assert.Equal(t, 0.0, result.Severity)
}

func TestPIIRepeatedMatchesIncreaseScore(t *testing.T) {
	detector := newPII(t)

	single := detector.Analyze(context.Background(), "Email jane@example.com", nil)
	double := detector.Analyze(context.Background(), "Email jane@example.com or john@example.com", nil)

	assert.Greater(t, double.SubScores[SignalContactInfo], single.SubScores[SignalContactInfo])
}

func TestPIISeverityBelowDetectionThreshold(t *testing.T) {
	// A lone SSN scores below the detection threshold; surfacing it is the
	// aggregator's promotion rule, not the detector's job.
	detector := newPII(t)

	result := detector.Analyze(context.Background(), "My SSN is 123-45-6789", nil)

	assert.False(t, result.Detected)
	assert.Greater(t, result.Severity, 0.15)
	assert.Less(t, result.Severity, 0.5)
}
