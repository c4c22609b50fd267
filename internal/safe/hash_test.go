package safe

import (
	"math/big"
	"testing"

	"guard-core/internal/guard"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = Domain{
	ChainID: big.NewInt(31337),
	Safe:    common.HexToAddress("0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe"),
}

func sampleTx() guard.Transaction {
	return guard.Transaction{
		To:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Value:     big.NewInt(1e18),
		Data:      []byte{0xa9, 0x05, 0x9c, 0xbb},
		Operation: guard.OperationCall,
	}
}

func TestTypeHashes(t *testing.T) {
	assert.Equal(t, "0x47e79534a245952e8b16893a336b85a3d9ea9fa8c573f3d803afb92a79469218", DomainSeparatorTypeHash.Hex())
	assert.Equal(t, "0xbb8310d486368db6bd6f849402fdd73ad53d316b5a4b2644ad6efe0f941286d8", SafeTxTypeHash.Hex())
}

func TestEncodeTransactionData_Layout(t *testing.T) {
	data := testDomain.EncodeTransactionData(sampleTx(), big.NewInt(0))
	require.Len(t, data, 66)
	assert.Equal(t, []byte{0x19, 0x01}, data[:2])

	sep := testDomain.Separator()
	assert.Equal(t, sep.Bytes(), data[2:34])
	st := StructHash(sampleTx(), big.NewInt(0))
	assert.Equal(t, st.Bytes(), data[34:])
}

// Safe 哈希随 nonce 变化, guard fingerprint 不随 nonce 变化
func TestTransactionHash_NonceExcludedFromFingerprint(t *testing.T) {
	tx := sampleTx()

	h0 := testDomain.TransactionHash(tx, big.NewInt(0))
	h1 := testDomain.TransactionHash(tx, big.NewInt(1))
	assert.NotEqual(t, h0, h1)

	assert.Equal(t, guard.Fingerprint(tx), guard.Fingerprint(tx))
}

func TestTransactionHash_DomainBound(t *testing.T) {
	tx := sampleTx()
	other := Domain{ChainID: big.NewInt(1), Safe: testDomain.Safe}
	assert.NotEqual(t, testDomain.TransactionHash(tx, nil), other.TransactionHash(tx, nil))

	otherSafe := Domain{ChainID: testDomain.ChainID, Safe: common.HexToAddress("0x01")}
	assert.NotEqual(t, testDomain.TransactionHash(tx, nil), otherSafe.TransactionHash(tx, nil))
}

func TestStructHash_NilEqualsZero(t *testing.T) {
	tx := sampleTx()
	withZero := tx
	withZero.SafeTxGas = big.NewInt(0)
	withZero.BaseGas = big.NewInt(0)
	withZero.GasPrice = big.NewInt(0)

	assert.Equal(t, StructHash(tx, nil), StructHash(withZero, big.NewInt(0)))
}
