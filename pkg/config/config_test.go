package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/run-bigpig/riskguard/pkg/risk"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Adversarial.Threshold = 1.5

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "adversarial")
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	cfg := Default()
	cfg.PII.Weights = map[string]float64{
		"direct_identifiers": 0.5,
		"contact_info":       0.3,
	}

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestValidateRejectsEmptyWeights(t *testing.T) {
	cfg := Default()
	cfg.Bias.Weights = nil

	assert.Error(t, cfg.Validate())
}

func TestWithThresholdsCopies(t *testing.T) {
	base := Default()
	adjusted := base.WithThresholds(map[risk.Type]float64{
		risk.TypePII: 0.25,
	})

	assert.Equal(t, 0.25, adjusted.PII.Threshold)
	assert.Equal(t, 0.5, base.PII.Threshold)
}

func TestOptimizeForUseCase(t *testing.T) {
	base := Default()

	healthcare, err := base.OptimizeForUseCase("healthcare")
	assert.NoError(t, err)
	assert.Equal(t, 0.3, healthcare.PII.Threshold)
	assert.Equal(t, 0.4, healthcare.Hallucination.Threshold)

	financial, err := base.OptimizeForUseCase("FINANCIAL")
	assert.NoError(t, err)
	assert.Equal(t, 0.25, financial.PII.Threshold)
	assert.Equal(t, 0.15, financial.Adversarial.Threshold)

	chatbot, err := base.OptimizeForUseCase("chatbot")
	assert.NoError(t, err)
	assert.Equal(t, base, chatbot)

	_, err = base.OptimizeForUseCase("unknown")
	assert.Error(t, err)
}

func TestLoadFromYAML(t *testing.T) {
	content := `
adversarial:
  threshold: 0.3
input_report:
  pii: 0.1
`
	path := filepath.Join(t.TempDir(), "risk.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)

	assert.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Adversarial.Threshold)
	assert.Equal(t, 0.1, cfg.InputReport.PII)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.5, cfg.PII.Threshold)
}

func TestLoadRejectsInvalidPath(t *testing.T) {
	_, err := Load("../../../etc/passwd")
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	content := `
bias:
  threshold: 2.0
`
	path := filepath.Join(t.TempDir(), "risk.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)

	assert.Error(t, err)
}
