// Package config loads and validates the risk pipeline configuration:
// per-detector detection thresholds and sub-signal weight tables, and the
// per-side reporting thresholds used by the aggregator. A RiskConfig is a
// value; reconfiguration always goes through a fresh snapshot rather than
// mutating one shared between in-flight requests.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/run-bigpig/riskguard/pkg/risk"
	"gopkg.in/yaml.v3"
)

// weightTolerance is the allowed deviation when checking that a weight
// table sums to 1.0.
const weightTolerance = 1e-6

// DetectorConfig configures a single detector: the severity above which it
// reports detected=true, and the weight given to each of its sub-signals.
type DetectorConfig struct {
	Threshold float64            `yaml:"threshold"`
	Weights   map[string]float64 `yaml:"weights"`
}

// ReportThresholds holds the per-category severity bars above which the
// aggregator surfaces a result even when the detector did not flag it.
// These are intentionally lower than the detection thresholds.
type ReportThresholds struct {
	Adversarial   float64 `yaml:"adversarial"`
	PII           float64 `yaml:"pii"`
	Bias          float64 `yaml:"bias"`
	Hallucination float64 `yaml:"hallucination"`
}

// For returns the reporting threshold for the given risk type.
func (r ReportThresholds) For(t risk.Type) float64 {
	switch t {
	case risk.TypeAdversarial:
		return r.Adversarial
	case risk.TypePII:
		return r.PII
	case risk.TypeBias:
		return r.Bias
	case risk.TypeHallucination:
		return r.Hallucination
	default:
		return 1.0
	}
}

// RiskConfig is the full configuration snapshot for one pipeline instance.
type RiskConfig struct {
	Adversarial   DetectorConfig `yaml:"adversarial"`
	PII           DetectorConfig `yaml:"pii"`
	Bias          DetectorConfig `yaml:"bias"`
	Hallucination DetectorConfig `yaml:"hallucination"`

	InputReport  ReportThresholds `yaml:"input_report"`
	OutputReport ReportThresholds `yaml:"output_report"`
}

// Default returns the default configuration. The adversarial weight table
// favors the pattern-driven families; the statistical families act as
// corroboration rather than primary evidence.
func Default() RiskConfig {
	return RiskConfig{
		Adversarial: DetectorConfig{
			Threshold: 0.2,
			Weights: map[string]float64{
				"prompt_injection":      0.30,
				"jailbreak":             0.25,
				"obfuscation":           0.10,
				"social_engineering":    0.15,
				"encoding_attacks":      0.10,
				"statistical_anomalies": 0.10,
			},
		},
		PII: DetectorConfig{
			Threshold: 0.5,
			Weights: map[string]float64{
				"direct_identifiers":  0.40,
				"contact_info":        0.30,
				"personal_details":    0.15,
				"network_identifiers": 0.15,
			},
		},
		Bias: DetectorConfig{
			Threshold: 0.45,
			Weights: map[string]float64{
				"stereotype_phrases":       0.30,
				"gendered_language":        0.25,
				"absolute_generalizations": 0.25,
				"loaded_language":          0.20,
			},
		},
		Hallucination: DetectorConfig{
			Threshold: 0.5,
			Weights: map[string]float64{
				"context_divergence":     0.30,
				"overconfidence":         0.25,
				"fabricated_specificity": 0.25,
				"contradiction_markers":  0.20,
			},
		},
		InputReport: ReportThresholds{
			Adversarial:   0.25,
			PII:           0.15,
			Bias:          0.20,
			Hallucination: 0.30,
		},
		OutputReport: ReportThresholds{
			Adversarial:   0.25,
			PII:           0.30,
			Bias:          0.20,
			Hallucination: 0.30,
		},
	}
}

// Load reads a RiskConfig from a YAML file and validates it. Fields not
// present in the file keep their defaults.
func Load(filePath string) (RiskConfig, error) {
	cfg := Default()

	if !isValidFilePath(filePath) {
		return cfg, fmt.Errorf("invalid config file path")
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return cfg, fmt.Errorf("failed to read risk config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal risk config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that all thresholds lie in [0,1] and that every weight
// table sums to 1.0 within tolerance. Configuration errors fail fast here
// instead of surfacing per request.
func (c RiskConfig) Validate() error {
	detectors := map[string]DetectorConfig{
		"adversarial":   c.Adversarial,
		"pii":           c.PII,
		"bias":          c.Bias,
		"hallucination": c.Hallucination,
	}

	for name, dc := range detectors {
		if dc.Threshold < 0 || dc.Threshold > 1 {
			return fmt.Errorf("%s: threshold %v out of range [0,1]", name, dc.Threshold)
		}
		if len(dc.Weights) == 0 {
			return fmt.Errorf("%s: weight table is empty", name)
		}
		sum := 0.0
		for signal, w := range dc.Weights {
			if w < 0 || w > 1 {
				return fmt.Errorf("%s: weight for %s out of range [0,1]", name, signal)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return fmt.Errorf("%s: weights sum to %v, want 1.0", name, sum)
		}
	}

	for side, rt := range map[string]ReportThresholds{"input_report": c.InputReport, "output_report": c.OutputReport} {
		for _, v := range []float64{rt.Adversarial, rt.PII, rt.Bias, rt.Hallucination} {
			if v < 0 || v > 1 {
				return fmt.Errorf("%s: threshold %v out of range [0,1]", side, v)
			}
		}
	}

	return nil
}

// WithThresholds returns a copy of the configuration with the given
// detection thresholds replaced. Unknown types are ignored.
func (c RiskConfig) WithThresholds(thresholds map[risk.Type]float64) RiskConfig {
	for t, v := range thresholds {
		switch t {
		case risk.TypeAdversarial:
			c.Adversarial.Threshold = v
		case risk.TypePII:
			c.PII.Threshold = v
		case risk.TypeBias:
			c.Bias.Threshold = v
		case risk.TypeHallucination:
			c.Hallucination.Threshold = v
		}
	}
	return c
}

// OptimizeForUseCase returns a copy of the configuration with thresholds
// bulk-adjusted for a named deployment profile.
func (c RiskConfig) OptimizeForUseCase(useCase string) (RiskConfig, error) {
	switch strings.ToLower(useCase) {
	case "chatbot":
		return c, nil
	case "healthcare":
		return c.WithThresholds(map[risk.Type]float64{
			risk.TypePII:           0.3,
			risk.TypeHallucination: 0.4,
		}), nil
	case "financial":
		return c.WithThresholds(map[risk.Type]float64{
			risk.TypePII:         0.25,
			risk.TypeAdversarial: 0.15,
		}), nil
	case "creative":
		return c.WithThresholds(map[risk.Type]float64{
			risk.TypeBias:          0.6,
			risk.TypeHallucination: 0.7,
		}), nil
	default:
		return c, fmt.Errorf("unknown use case: %s", useCase)
	}
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	if filePath == "" {
		return false
	}

	cleanPath := filepath.Clean(filePath)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return false
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}

	return fileInfo.Mode().IsRegular()
}
