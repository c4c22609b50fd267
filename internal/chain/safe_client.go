package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"guard-core/internal/guard"
	"guard-core/internal/safe"
	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SafeClient 链上 Safe 合约
type SafeClient struct {
	backend Backend
	domain  safe.Domain
}

var (
	_ guard.ApprovalVerifier = (*SafeClient)(nil)
	_ safe.NonceSource       = (*SafeClient)(nil)
)

func NewSafeClient(backend Backend, chainID *big.Int, address common.Address) *SafeClient {
	return &SafeClient{
		backend: backend,
		domain:  safe.Domain{ChainID: chainID, Safe: address},
	}
}

func (c *SafeClient) Domain() safe.Domain {
	return c.domain
}

func (c *SafeClient) Nonce(ctx context.Context) (*big.Int, error) {
	out, err := call(ctx, c.backend, safeABI, c.domain.Safe, "nonce")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *SafeClient) Threshold(ctx context.Context) (*big.Int, error) {
	out, err := call(ctx, c.backend, safeABI, c.domain.Safe, "getThreshold")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *SafeClient) Owners(ctx context.Context) ([]common.Address, error) {
	out, err := call(ctx, c.backend, safeABI, c.domain.Safe, "getOwners")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

// VerifyApproval 以当前 nonce 计算 Safe 交易哈希, 交给合约 checkSignatures 校验
func (c *SafeClient) VerifyApproval(ctx context.Context, tx guard.Transaction, signatures []byte) error {
	// 1. 当前 nonce
	nonce, err := c.Nonce(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrUpstream, err)
	}

	// 2. 签名原文与哈希
	data := c.domain.EncodeTransactionData(tx, nonce)
	dataHash := crypto.Keccak256Hash(data)

	// 3. checkSignatures 失败即 revert
	_, err = call(ctx, c.backend, safeABI, c.domain.Safe, "checkSignatures", dataHash, data, signatures)
	if errors.Is(err, ErrReverted) {
		return fmt.Errorf("%w: %v", errno.ErrInvalidApprovalProof, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrUpstream, err)
	}
	return nil
}
