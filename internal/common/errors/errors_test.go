// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError_RetryableCode(t *testing.T) {
	stdErr := NewDependencyFailureError("chat service", stderrors.New("502"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "DEPENDENCY_FAILURE", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "DEPENDENCY_FAILURE", bpmnErr.ErrorVariables["originalErrorCode"])
	assert.Equal(t, "chat service", bpmnErr.ErrorVariables["collaborator"])
}

func TestConvertToBPMNError_BusinessOutcomeNeverRetries(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewSwipeConflictError("already rejected"))

	assert.Equal(t, "SWIPE_CONFLICT", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnknownCodePassesThrough(t *testing.T) {
	stdErr := &StandardError{
		Code:      "SOMETHING_NEW",
		Message:   "unmapped",
		Timestamp: time.Now().UTC(),
	}

	assert.Equal(t, "SOMETHING_NEW", ConvertToBPMNError(stdErr).Code)
}

func TestToErrorVariables_MergesCustomVariables(t *testing.T) {
	bpmnErr := &BPMNError{
		Code:           "QUOTA_EXCEEDED",
		Message:        "denied",
		Retryable:      false,
		ErrorVariables: map[string]interface{}{"resetsInSeconds": 3600},
	}

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "QUOTA_EXCEEDED", vars["errorCode"])
	assert.Equal(t, "denied", vars["errorMessage"])
	assert.Equal(t, 3600, vars["resetsInSeconds"])
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeDatabaseConnectionFailed))
	assert.Equal(t, 3, GetRetryCount(ErrCodeNotificationSendFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeSearchTimeout))
	assert.Zero(t, GetRetryCount(ErrCodeQuotaExceeded))
	assert.Zero(t, GetRetryCount(ErrCodeProfileNotFound))
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeQuotaExceeded, "QUOTA"},
		{ErrCodeSwipeConflict, "MATCHING"},
		{ErrCodeProfileNotFound, "PROFILE"},
		{ErrCodeQueryTimeout, "DATABASE"},
		{ErrCodeIndexNotFound, "SEARCH"},
		{ErrCodeChatRoomCreateFailed, "NOTIFICATION"},
		{ErrCodeValidationFailed, "VALIDATION"},
		{ErrCodeDependencyFailure, "OTHER"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetErrorCategory(tt.code), string(tt.code))
	}
}

func TestClassifierHelpers(t *testing.T) {
	conflict := fmt.Errorf("swipe: %w", NewSwipeConflictError("done"))

	assert.True(t, IsConflict(conflict))
	assert.False(t, IsConflict(stderrors.New("done")))

	assert.True(t, IsQuotaExceeded(NewQuotaExceededError("superLikes", time.Hour)))
	assert.True(t, IsNotFound(NewProfileNotFoundError("ghost")))
	assert.True(t, IsValidation(NewValidationFailedError("missing userId")))

	assert.True(t, IsDependency(NewChatRoomCreateFailedError("rec-1", stderrors.New("502"))))
	assert.True(t, IsDependency(NewSearchQueryFailedError("by_industry", stderrors.New("es down"))))
	assert.False(t, IsDependency(NewSwipeConflictError("done")))
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, ErrCodeQuotaExceeded, CodeOf(NewQuotaExceededError("matchViews", time.Hour)))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
}
