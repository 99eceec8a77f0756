package mitigation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/run-bigpig/riskguard/pkg/risk"
)

func TestApplyNoEntriesKeepsCandidate(t *testing.T) {
	selector := NewSelector()

	outcome := selector.Apply(nil, "original response")

	assert.Equal(t, "original response", outcome.MitigatedText)
	assert.Empty(t, outcome.Applied)
}

func TestApplyPIIReplacesAndStops(t *testing.T) {
	selector := NewSelector()
	entries := []risk.Entry{
		{Type: risk.TypePII, Severity: 0.5},
		{Type: risk.TypeBias, Severity: 0.6},
	}

	outcome := selector.Apply(entries, "Your SSN is 123-45-6789")

	assert.Equal(t, PrivacyMessage, outcome.MitigatedText)
	assert.Equal(t, []string{ActionPIIPrivacyProtection}, outcome.Applied)
}

func TestApplyBiasBeforePII(t *testing.T) {
	// Priority is positional: a bias entry ahead of a PII entry acts first,
	// then PII replaces everything and ends the scan.
	selector := NewSelector()
	entries := []risk.Entry{
		{Type: risk.TypeBias, Severity: 0.6},
		{Type: risk.TypePII, Severity: 0.5},
	}

	outcome := selector.Apply(entries, "some response")

	assert.Equal(t, PrivacyMessage, outcome.MitigatedText)
	assert.Equal(t, []string{ActionBiasDisclaimer, ActionPIIPrivacyProtection}, outcome.Applied)
}

func TestApplyBiasAppendsDisclaimer(t *testing.T) {
	selector := NewSelector()
	entries := []risk.Entry{
		{Type: risk.TypeBias, Severity: 0.4},
	}

	outcome := selector.Apply(entries, "some response")

	assert.True(t, strings.HasPrefix(outcome.MitigatedText, "some response"))
	assert.Contains(t, outcome.MitigatedText, "balanced, unbiased information")
	assert.Equal(t, []string{ActionBiasDisclaimer}, outcome.Applied)
}

func TestApplyHallucinationStrictThreshold(t *testing.T) {
	selector := NewSelector()

	at := selector.Apply([]risk.Entry{{Type: risk.TypeHallucination, Severity: 0.5}}, "claim")
	above := selector.Apply([]risk.Entry{{Type: risk.TypeHallucination, Severity: 0.51}}, "claim")

	assert.Empty(t, at.Applied)
	assert.Equal(t, "claim", at.MitigatedText)

	assert.Equal(t, []string{ActionHallucinationDisclaimer}, above.Applied)
	assert.Contains(t, above.MitigatedText, "claim")
	assert.True(t, strings.HasPrefix(above.MitigatedText, "I want to be transparent"))
	assert.True(t, strings.HasSuffix(above.MitigatedText, "Please verify this information from reliable sources."))
}

func TestApplySkipsBelowEligibility(t *testing.T) {
	selector := NewSelector()
	entries := []risk.Entry{
		{Type: risk.TypePII, Severity: 0.29},
		{Type: risk.TypeBias, Severity: 0.1},
	}

	outcome := selector.Apply(entries, "untouched")

	assert.Equal(t, "untouched", outcome.MitigatedText)
	assert.Empty(t, outcome.Applied)
}

func TestApplySkipsUnrecognizedTypes(t *testing.T) {
	selector := NewSelector()
	entries := []risk.Entry{
		{Type: risk.TypeAdversarial, Severity: 0.9},
		{Type: risk.Type("unknown"), Severity: 0.9},
	}

	outcome := selector.Apply(entries, "untouched")

	assert.Equal(t, "untouched", outcome.MitigatedText)
	assert.Empty(t, outcome.Applied)
}

func TestApplyBiasThenHallucination(t *testing.T) {
	selector := NewSelector()
	entries := []risk.Entry{
		{Type: risk.TypeBias, Severity: 0.5},
		{Type: risk.TypeHallucination, Severity: 0.8},
	}

	outcome := selector.Apply(entries, "claim")

	assert.Equal(t, []string{ActionBiasDisclaimer, ActionHallucinationDisclaimer}, outcome.Applied)
	// Hallucination wraps the already-disclaimed text.
	assert.True(t, strings.HasPrefix(outcome.MitigatedText, "I want to be transparent"))
	assert.Contains(t, outcome.MitigatedText, "multiple perspectives")
}
