package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeErrorIncludesLocation(t *testing.T) {
	t.Parallel()

	err := NewTokenizeError(Location{Line: 3, Column: 5}, "unterminated string")

	var tokErr *TokenizeError
	require.ErrorAs(t, err, &tokErr)
	require.Equal(t, 3, tokErr.Location.Line)
	require.Contains(t, err.Error(), "unterminated string")
}

func TestIndentationErrorReportsExpectedLevel(t *testing.T) {
	t.Parallel()

	err := NewIndentationError(Location{Line: 4, Column: 1}, 4, 2)

	var indentErr *IndentationError
	require.ErrorAs(t, err, &indentErr)
	require.Equal(t, 4, indentErr.Expected)
	require.Equal(t, 2, indentErr.Got)
}

func TestParseErrorDescribesExpectation(t *testing.T) {
	t.Parallel()

	err := NewParseError(Location{Line: 1, Column: 7}, "DEDENT", "INDENT")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "INDENT", parseErr.Expected)
	require.Contains(t, err.Error(), "DEDENT")
}

func TestValidationErrorCarriesCode(t *testing.T) {
	t.Parallel()

	err := NewValidationError("DUPLICATE_STEP_ID", "steps[1].id", "duplicate step id \"a\"")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "DUPLICATE_STEP_ID", validationErr.Code)
	require.Contains(t, err.Error(), "steps[1].id")
}

func TestRuntimeErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("dependency not executed")
	err := NewRuntimeError("action_1", underlying)

	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, "action_1", runtimeErr.StepID)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestTimeoutErrorReportsDeadlineExceededKind(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("advisory_1", 30)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, "deadline_exceeded", timeoutErr.ErrorKind())
}

func TestGuardFailedIncludesSeverity(t *testing.T) {
	t.Parallel()

	err := NewGuardFailed("positive", "halt", "params.amount > 0 was false")

	var guardErr *GuardFailed
	require.ErrorAs(t, err, &guardErr)
	require.Equal(t, "halt", guardErr.Severity)
}

func TestCircuitBreakerTrippedIncludesReason(t *testing.T) {
	t.Parallel()

	err := NewCircuitBreakerTripped("gas_rate", "rate exceeded policy threshold")

	var breakerErr *CircuitBreakerTripped
	require.ErrorAs(t, err, &breakerErr)
	require.Contains(t, err.Error(), "gas_rate")
}

func TestAdapterErrorIncludesAdapterName(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("not supported")
	err := NewAdapterError("aave", underlying)

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	require.Equal(t, "aave", adapterErr.Adapter)
	require.True(t, stdErrors.Is(err, underlying))
}
