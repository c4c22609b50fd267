package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"guard-core/pkg/errno"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int       `json:"code"`
	Message string    `json:"msg"`
	Data    ErrorData `json:"data"`
}

func render(t *testing.T, err error) envelope {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	Error(c, err)

	assert.Equal(t, 200, w.Code)
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		msg       string
		retryable bool
	}{
		{"delay", errno.ErrDelayNotElapsed, 30004, "Transaction delay period has not completed yet", true},
		{"frozen wrapped", fmt.Errorf("check: %w", errno.ErrSystemFrozen), 30006, "DAO is frozen", true},
		{"vetoed", errno.ErrVetoed, 30005, "Transaction has been vetoed", false},
		{"upstream", fmt.Errorf("%w: dial tcp", errno.ErrUpstream), errno.ErrUpstream.Code, errno.ErrUpstream.Message, false},
		{"unknown hides detail", errors.New("pq: password authentication failed"), errno.InternalServerError.Code, errno.InternalServerError.Message, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.err)
			assert.Equal(t, tt.code, out.Code)
			assert.Equal(t, tt.msg, out.Message)
			assert.Equal(t, tt.retryable, out.Data.Retryable)
		})
	}
}

func TestSuccessNilData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, nil)
	assert.JSONEq(t, `{"code":0,"msg":"Success","data":{}}`, w.Body.String())
}
