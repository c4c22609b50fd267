package request

import (
	"fmt"
	"math/big"

	"guard-core/internal/guard"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionRequest Safe 交易参数, 数值字段为十进制字符串, data 为 0x 十六进制
type TransactionRequest struct {
	To             string `json:"to" binding:"required,eth_addr"`
	Value          string `json:"value" binding:"omitempty,uint256"`
	Data           string `json:"data" binding:"omitempty,hexbytes"`
	Operation      uint8  `json:"operation" binding:"oneof=0 1"`
	SafeTxGas      string `json:"safe_tx_gas" binding:"omitempty,uint256"`
	BaseGas        string `json:"base_gas" binding:"omitempty,uint256"`
	GasPrice       string `json:"gas_price" binding:"omitempty,uint256"`
	GasToken       string `json:"gas_token" binding:"omitempty,eth_addr"`
	RefundReceiver string `json:"refund_receiver" binding:"omitempty,eth_addr"`
}

// QueueTransactionRequest Submitter 为调用方自报地址, 仅作记录, 未经认证
type QueueTransactionRequest struct {
	Transaction TransactionRequest `json:"transaction" binding:"required"`
	Signatures  string             `json:"signatures" binding:"required,hexbytes"`
	Submitter   string             `json:"submitter" binding:"omitempty,eth_addr"`
}

type CastVoteRequest struct {
	Voter     string `json:"voter" binding:"required,eth_addr"`
	Freeze    bool   `json:"freeze"`
	Signature string `json:"signature" binding:"required,hexbytes"`
}

type CheckTransactionRequest struct {
	Fingerprint string `json:"fingerprint" binding:"required,hex32"`
}

type ExecutedRequest struct {
	Fingerprint string `json:"fingerprint" binding:"required,hex32"`
	Success     bool   `json:"success"`
}

// ToTransaction 转换为 guard.Transaction
func (r TransactionRequest) ToTransaction() (guard.Transaction, error) {
	tx := guard.Transaction{
		To:             common.HexToAddress(r.To),
		Operation:      guard.Operation(r.Operation),
		GasToken:       common.HexToAddress(r.GasToken),
		RefundReceiver: common.HexToAddress(r.RefundReceiver),
	}

	var err error
	if tx.Data, err = DecodeHex(r.Data); err != nil {
		return guard.Transaction{}, fmt.Errorf("data: %w", err)
	}
	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"value", r.Value, &tx.Value},
		{"safe_tx_gas", r.SafeTxGas, &tx.SafeTxGas},
		{"base_gas", r.BaseGas, &tx.BaseGas},
		{"gas_price", r.GasPrice, &tx.GasPrice},
	}
	for _, f := range fields {
		if *f.dst, err = parseUint256(f.raw); err != nil {
			return guard.Transaction{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return tx, nil
}

// DecodeHex 空串和 "0x" 都视为空字节
func DecodeHex(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func parseUint256(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%q is not a uint256", s)
	}
	return v, nil
}
