package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"nil", nil, 0, "Success"},
		{"plain errno", ErrNotQueued, 30002, "Transaction is not in the queued state"},
		{"wrapped errno", fmt.Errorf("queue: %w", ErrDelayNotElapsed), 30004, "Transaction delay period has not completed yet"},
		{"pointer errno", &ErrVetoed, 30005, "Transaction has been vetoed"},
		{"vote on unqueued tx", ErrNotYetQueued, 30002, "Transaction has not yet been queued"},
		{"foreign error", errors.New("boom"), 10001, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Decode(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestWithMessageKeepsIdentity(t *testing.T) {
	err := ErrBind.WithMessage("to 不能为空")

	assert.True(t, errors.Is(err, ErrBind))
	assert.False(t, errors.Is(err, ErrDatabase))
	assert.Equal(t, "to 不能为空", err.Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrDelayNotElapsed))
	assert.True(t, Retryable(fmt.Errorf("check: %w", ErrSystemFrozen)))
	assert.False(t, Retryable(ErrVetoed))
	assert.False(t, Retryable(ErrNotQueued))
}
