package frequency

import "fmt"

// ErrorKind classifies analysis errors so that collaborators can render them
// distinctly. Fatal kinds abort before any fit result is produced; fitting
// and instability kinds are recorded per family inside the result.
type ErrorKind string

const (
	KindInputValidation      ErrorKind = "input_validation"
	KindInsufficientData     ErrorKind = "insufficient_data"
	KindDistributionFitting  ErrorKind = "distribution_fitting"
	KindNumericalInstability ErrorKind = "numerical_instability"
	KindConfiguration        ErrorKind = "configuration"
)

// Fatal reports whether errors of this kind abort the whole analysis.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindInputValidation, KindInsufficientData, KindConfiguration:
		return true
	}
	return false
}

// AnalysisError is a structured error carrying a kind and context for
// user-facing rendering.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewInputValidationError reports malformed input: unknown aggregation tag,
// empty sample set, unknown distribution name.
func NewInputValidationError(format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{
		Kind:    KindInputValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInsufficientDataError reports a record too short to analyze at all.
func NewInsufficientDataError(required, available int) *AnalysisError {
	return &AnalysisError{
		Kind: KindInsufficientData,
		Message: fmt.Sprintf("insufficient data: %d periods available, %d required",
			available, required),
		Context: map[string]interface{}{
			"required":  required,
			"available": available,
		},
	}
}

// NewFittingError reports a recoverable per-family MLE failure.
func NewFittingError(family, reason string) *AnalysisError {
	return &AnalysisError{
		Kind:    KindDistributionFitting,
		Message: fmt.Sprintf("could not fit %s: %s", family, reason),
		Context: map[string]interface{}{"family": family},
	}
}

// NewNumericalInstabilityError reports degenerate input detected before
// fitting, such as a zero-variance sample.
func NewNumericalInstabilityError(reason string) *AnalysisError {
	return &AnalysisError{
		Kind:    KindNumericalInstability,
		Message: reason,
	}
}

// NewConfigurationError reports an invalid analysis configuration.
func NewConfigurationError(format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}
