// Package risk defines the data model shared by the detection, scoring,
// mitigation and agent packages. All values are built once per request and
// never mutated after construction.
package risk

// Type identifies a detector category.
type Type string

const (
	TypeAdversarial   Type = "adversarial"
	TypePII           Type = "pii"
	TypeBias          Type = "bias"
	TypeHallucination Type = "hallucination"
)

// Side identifies which half of the pipeline produced a risk entry.
type Side string

const (
	SideInput  Side = "input"
	SideOutput Side = "output"
)

// Level is the coarse risk bucket derived from overall severity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Severity cutoffs for LevelForScore.
const (
	MediumCutoff = 0.4
	HighCutoff   = 0.7
)

// LevelForScore maps a severity score to a Level.
func LevelForScore(score float64) Level {
	switch {
	case score >= HighCutoff:
		return LevelHigh
	case score >= MediumCutoff:
		return LevelMedium
	default:
		return LevelLow
	}
}

// DetectionResult is the outcome of running one detector against one text.
// Severity and Confidence are always populated, even when the detector
// failed internally; in that case Err carries the cause, the scores are
// zero and Detected is false.
type DetectionResult struct {
	Type       Type
	Severity   float64
	Confidence float64
	Detected   bool

	// SubScores maps sub-signal name to its score in [0,1].
	SubScores map[string]float64

	// Factors holds human-readable risk factor strings.
	Factors []string

	// Analysis is a free-text summary of the detection.
	Analysis string

	// Categories lists matched sub-categories where a detector tracks
	// them (the PII detector records each PII category it matched).
	Categories []string

	// Err is non-empty for the degraded variant produced when detection
	// failed internally. The aggregator treats it as a low-signal result;
	// observability tooling can tell it apart from genuine low risk.
	Err string
}

// Degraded reports whether the result is the degraded variant.
func (r DetectionResult) Degraded() bool {
	return r.Err != ""
}

// DegradedResult builds the zero-valued result for a failed detector run.
func DegradedResult(t Type, cause string) DetectionResult {
	return DetectionResult{
		Type:       t,
		Severity:   0,
		Confidence: 0,
		Detected:   false,
		Err:        cause,
	}
}

// AnalysisContext carries optional context for a detector run. The
// hallucination detector uses Input (the originating user text) to measure
// divergence between prompt and response.
type AnalysisContext struct {
	Input string
}

// Entry is one element of an aggregated risk record: a detection result
// that crossed its reporting threshold, annotated with the pipeline side
// that produced it.
type Entry struct {
	Type       Type
	Side       Side
	Severity   float64
	Confidence float64
	Result     DetectionResult
}

// OverallScore is the single verdict derived from all risk entries of a
// request: maximum severity, mean confidence, bucketed level.
type OverallScore struct {
	Score      float64
	Level      Level
	Confidence float64
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
