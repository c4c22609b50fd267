package validator

import (
	"math/big"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUint256(t *testing.T) {
	maxStr := maxUint256.String()
	over := new(big.Int).Add(maxUint256, big.NewInt(1)).String()

	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"42", true},
		{maxStr, true},
		{over, false},
		{"-1", false},
		{"+1", false},
		{"1.5", false},
		{"0x10", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUint256(tt.in), tt.in)
	}
}

type sample struct {
	Safe   string `validate:"required,eth_addr"`
	Hash   string `validate:"hex32"`
	Data   string `validate:"omitempty,hexbytes"`
	Amount string `validate:"omitempty,uint256"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	for tag, r := range rules {
		check := r.check
		require.NoError(t, v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}))
	}
	return v
}

func TestRules(t *testing.T) {
	v := newValidate(t)
	ok := sample{
		Safe: "0x1111111111111111111111111111111111111111",
		Hash: "0x" + strings.Repeat("ab", 32),
		Data: "0x",
	}
	require.NoError(t, v.Struct(ok))

	bad := sample{Safe: "0x12", Hash: "0x01", Data: "0xabc", Amount: "-5"}
	err := v.Struct(bad)
	require.Error(t, err)

	msg := GetErrorMsg(err)
	assert.Contains(t, msg, "Safe 不是合法的以太坊地址")
	assert.Contains(t, msg, "Hash 必须是 0x 开头的 32 字节十六进制")
	assert.Contains(t, msg, "Data 必须是 0x 开头的十六进制字节串")
	assert.Contains(t, msg, "Amount 必须是 0 到 2^256-1")
}

func TestGetErrorMsg_NotValidationError(t *testing.T) {
	assert.Equal(t, "请求参数错误", GetErrorMsg(assert.AnError))
}
