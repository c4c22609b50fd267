package guard

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	uint8Type, _   = abi.NewType("uint8", "", nil)
	bytes32Type, _ = abi.NewType("bytes32", "", nil)

	// abi.encode(to, value, keccak256(data), operation, safeTxGas, baseGas, gasPrice, gasToken, refundReceiver)
	fingerprintArgs = abi.Arguments{
		{Type: addressType},
		{Type: uint256Type},
		{Type: bytes32Type},
		{Type: uint8Type},
		{Type: uint256Type},
		{Type: uint256Type},
		{Type: uint256Type},
		{Type: addressType},
		{Type: addressType},
	}
)

// Fingerprint 交易指纹
// 刻意不包含 Safe nonce: 同一组字段在不同 nonce 下得到相同指纹
func Fingerprint(tx Transaction) common.Hash {
	packed, err := fingerprintArgs.Pack(
		tx.To,
		bigOrZero(tx.Value),
		crypto.Keccak256Hash(tx.Data),
		uint8(tx.Operation),
		bigOrZero(tx.SafeTxGas),
		bigOrZero(tx.BaseGas),
		bigOrZero(tx.GasPrice),
		tx.GasToken,
		tx.RefundReceiver,
	)
	if err != nil {
		// 参数类型在编译期固定, 走到这里说明 fingerprintArgs 与调用不一致
		panic("guard: fingerprint encoding: " + err.Error())
	}
	return crypto.Keccak256Hash(packed)
}
