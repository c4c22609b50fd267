package request

import (
	"math/big"
	"strings"
	"testing"

	"guard-core/internal/guard"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTransaction(t *testing.T) {
	req := TransactionRequest{
		To:             "0x1111111111111111111111111111111111111111",
		Value:          "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		Data:           "0xa9059cbb",
		Operation:      1,
		SafeTxGas:      "21000",
		GasToken:       "0x2222222222222222222222222222222222222222",
		RefundReceiver: "",
	}
	tx, err := req.ToTransaction()
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(req.To), tx.To)
	assert.Equal(t, 0, maxUint256.Cmp(tx.Value))
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, tx.Data)
	assert.Equal(t, guard.OperationDelegateCall, tx.Operation)
	assert.Equal(t, int64(21000), tx.SafeTxGas.Int64())
	assert.Equal(t, 0, tx.BaseGas.Sign())
	assert.Equal(t, common.Address{}, tx.RefundReceiver)
}

func TestToTransaction_EmptyFieldsMatchZero(t *testing.T) {
	a, err := TransactionRequest{To: "0x1111111111111111111111111111111111111111"}.ToTransaction()
	require.NoError(t, err)
	b, err := TransactionRequest{To: "0x1111111111111111111111111111111111111111", Value: "0", Data: "0x"}.ToTransaction()
	require.NoError(t, err)
	assert.Equal(t, guard.Fingerprint(a), guard.Fingerprint(b))
}

func TestToTransaction_Rejects(t *testing.T) {
	overflow := new(big.Int).Add(maxUint256, big.NewInt(1)).String()
	tests := []struct {
		name string
		req  TransactionRequest
		want string
	}{
		{"negative value", TransactionRequest{Value: "-1"}, "value"},
		{"fractional gas", TransactionRequest{GasPrice: "1.5"}, "gas_price"},
		{"overflow", TransactionRequest{BaseGas: overflow}, "base_gas"},
		{"odd hex", TransactionRequest{Data: "0xabc"}, "data"},
		{"no prefix", TransactionRequest{Data: "abcd"}, "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToTransaction()
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), tt.want), err.Error())
		})
	}
}
