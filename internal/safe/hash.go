// Package safe 实现 Safe 钱包的 EIP-712 交易哈希与多签格式.
package safe

import (
	"math/big"

	"guard-core/internal/guard"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// DomainSeparatorTypeHash keccak256("EIP712Domain(uint256 chainId,address verifyingContract)")
	DomainSeparatorTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(uint256 chainId,address verifyingContract)"))

	// SafeTxTypeHash Safe v1.3+ 的 SafeTx 结构类型哈希
	SafeTxTypeHash = crypto.Keccak256Hash([]byte("SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"))
)

var (
	tAddress, _ = abi.NewType("address", "", nil)
	tUint256, _ = abi.NewType("uint256", "", nil)
	tUint8, _   = abi.NewType("uint8", "", nil)
	tBytes32, _ = abi.NewType("bytes32", "", nil)

	domainArgs = abi.Arguments{{Type: tBytes32}, {Type: tUint256}, {Type: tAddress}}
	safeTxArgs = abi.Arguments{
		{Type: tBytes32}, // SAFE_TX_TYPEHASH
		{Type: tAddress}, // to
		{Type: tUint256}, // value
		{Type: tBytes32}, // keccak256(data)
		{Type: tUint8},   // operation
		{Type: tUint256}, // safeTxGas
		{Type: tUint256}, // baseGas
		{Type: tUint256}, // gasPrice
		{Type: tAddress}, // gasToken
		{Type: tAddress}, // refundReceiver
		{Type: tUint256}, // nonce
	}
)

// Domain 一个 Safe 实例的签名域
type Domain struct {
	ChainID *big.Int
	Safe    common.Address
}

// Separator domainSeparator()
func (d Domain) Separator() common.Hash {
	packed, err := domainArgs.Pack(DomainSeparatorTypeHash, orZero(d.ChainID), d.Safe)
	if err != nil {
		panic("safe: domain encoding: " + err.Error())
	}
	return crypto.Keccak256Hash(packed)
}

// StructHash SafeTx 结构哈希, 包含 nonce
func StructHash(tx guard.Transaction, nonce *big.Int) common.Hash {
	packed, err := safeTxArgs.Pack(
		SafeTxTypeHash,
		tx.To,
		orZero(tx.Value),
		crypto.Keccak256Hash(tx.Data),
		uint8(tx.Operation),
		orZero(tx.SafeTxGas),
		orZero(tx.BaseGas),
		orZero(tx.GasPrice),
		tx.GasToken,
		tx.RefundReceiver,
		orZero(nonce),
	)
	if err != nil {
		panic("safe: SafeTx encoding: " + err.Error())
	}
	return crypto.Keccak256Hash(packed)
}

// EncodeTransactionData encodeTransactionData(): 0x19 0x01 || domainSeparator || safeTxHash
func (d Domain) EncodeTransactionData(tx guard.Transaction, nonce *big.Int) []byte {
	sep := d.Separator()
	st := StructHash(tx, nonce)
	out := make([]byte, 0, 66)
	out = append(out, 0x19, 0x01)
	out = append(out, sep[:]...)
	return append(out, st[:]...)
}

// TransactionHash getTransactionHash(), owner 签名的对象
func (d Domain) TransactionHash(tx guard.Transaction, nonce *big.Int) common.Hash {
	return crypto.Keccak256Hash(d.EncodeTransactionData(tx, nonce))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
