package safe

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"guard-core/internal/guard"
	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
)

// NonceSource 提供 Safe 当前 nonce
type NonceSource interface {
	Nonce(ctx context.Context) (*big.Int, error)
}

// StaticNonce 固定 nonce, 用于离线校验
type StaticNonce struct{ Value *big.Int }

func (s StaticNonce) Nonce(context.Context) (*big.Int, error) {
	return orZero(s.Value), nil
}

// LocalVerifier 按已知 owner 集合和阈值在本地校验 Safe 多签, 逻辑等价于 checkNSignatures
type LocalVerifier struct {
	domain    Domain
	owners    map[common.Address]struct{}
	threshold int
	nonce     NonceSource
}

var _ guard.ApprovalVerifier = (*LocalVerifier)(nil)

func NewLocalVerifier(domain Domain, owners []common.Address, threshold int, nonce NonceSource) (*LocalVerifier, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("safe: threshold must be positive, got %d", threshold)
	}
	set := make(map[common.Address]struct{}, len(owners))
	for _, o := range owners {
		set[o] = struct{}{}
	}
	if len(set) < threshold {
		return nil, fmt.Errorf("safe: threshold %d exceeds owner count %d", threshold, len(set))
	}
	if nonce == nil {
		nonce = StaticNonce{}
	}
	return &LocalVerifier{domain: domain, owners: set, threshold: threshold, nonce: nonce}, nil
}

// VerifyApproval 签名不满足时返回包装了 ErrInvalidApprovalProof 的错误, nonce 读取失败原样返回
func (v *LocalVerifier) VerifyApproval(ctx context.Context, tx guard.Transaction, signatures []byte) error {
	nonce, err := v.nonce.Nonce(ctx)
	if err != nil {
		return fmt.Errorf("safe: read nonce: %w", err)
	}
	dataHash := v.domain.TransactionHash(tx, nonce)

	if len(signatures) < v.threshold*SignatureLength {
		return reject("signatures too short: %d bytes for threshold %d", len(signatures), v.threshold)
	}

	// 只检查前 threshold 个签名, 多余部分忽略
	chunks, err := Split(signatures[:v.threshold*SignatureLength])
	if err != nil {
		return reject("%v", err)
	}

	var last common.Address
	for i, sig := range chunks {
		owner, err := Recover(dataHash, sig)
		if err != nil {
			return reject("signature %d: %v", i, err)
		}
		if bytes.Compare(owner.Bytes(), last.Bytes()) <= 0 {
			return reject("signature %d: signer %s not in ascending order", i, owner.Hex())
		}
		if _, ok := v.owners[owner]; !ok {
			return reject("signature %d: %s is not an owner", i, owner.Hex())
		}
		last = owner
	}
	return nil
}

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errno.ErrInvalidApprovalProof, fmt.Sprintf(format, args...))
}
