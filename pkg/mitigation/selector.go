// Package mitigation selects and applies at most a handful of deterministic
// text transformations in response to aggregated risk entries.
package mitigation

import (
	"github.com/run-bigpig/riskguard/pkg/risk"
)

// Mitigation action identifiers recorded in the outcome.
const (
	ActionPIIPrivacyProtection    = "pii_privacy_protection"
	ActionBiasDisclaimer          = "bias_disclaimer"
	ActionHallucinationDisclaimer = "hallucination_disclaimer"
)

// eligibilityThreshold is the severity below which entries are skipped.
const eligibilityThreshold = 0.3

// hallucinationThreshold is the stricter bar for the hallucination
// disclaimer: disclaimers degrade perceived response quality, so they are
// reserved for higher-severity cases. Strictly greater than, not equal.
const hallucinationThreshold = 0.5

// PrivacyMessage fully replaces the response when PII mitigation fires.
const PrivacyMessage = "I understand you've shared some personal information with me. " +
	"For your privacy and security, I'd prefer not to repeat or store personal details " +
	"like names, addresses, or other identifying information. " +
	"Is there something else I can help you with instead?"

const biasDisclaimer = "\n\n[Note: I strive to provide balanced, unbiased information. " +
	"Please consider multiple perspectives on complex topics.]"

const hallucinationPrefix = "I want to be transparent that I'm not entirely certain about this information: "

const hallucinationSuffix = "\n\nPlease verify this information from reliable sources."

// Outcome is the result of one mitigation pass.
type Outcome struct {
	// MitigatedText is the candidate text after every applied mitigation.
	MitigatedText string

	// Applied lists the identifiers of the mitigations actually applied,
	// in application order. Empty when nothing crossed the thresholds.
	Applied []string
}

// Selector applies mitigations to a candidate response.
type Selector struct{}

// NewSelector creates a mitigation selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Apply scans the risk entries in their given order, once. Priority is
// positional, not severity-ranked: the first eligible entry of each
// recognized family acts as encountered. PII mitigation is terminal: it
// replaces the whole candidate with the privacy message and stops the
// scan. Bias appends a disclaimer and the scan continues. Hallucination
// wraps the text in an uncertainty caveat, but only above its stricter
// severity bar. Unrecognized entry types are skipped, not an error.
func (s *Selector) Apply(entries []risk.Entry, candidate string) Outcome {
	outcome := Outcome{MitigatedText: candidate}

	for _, entry := range entries {
		if entry.Severity < eligibilityThreshold {
			continue
		}

		switch entry.Type {
		case risk.TypePII:
			outcome.MitigatedText = PrivacyMessage
			outcome.Applied = append(outcome.Applied, ActionPIIPrivacyProtection)
			return outcome
		case risk.TypeBias:
			outcome.MitigatedText += biasDisclaimer
			outcome.Applied = append(outcome.Applied, ActionBiasDisclaimer)
		case risk.TypeHallucination:
			if entry.Severity > hallucinationThreshold {
				outcome.MitigatedText = hallucinationPrefix + outcome.MitigatedText + hallucinationSuffix
				outcome.Applied = append(outcome.Applied, ActionHallucinationDisclaimer)
			}
		}
	}

	return outcome
}
