package safe

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength Safe 签名块长度 r(32) | s(32) | v(1)
const SignatureLength = 65

// SignatureKind 由 v 字节区分的 Safe 签名类型
type SignatureKind uint8

const (
	KindContract     SignatureKind = iota // v == 0, EIP-1271
	KindApprovedHash                      // v == 1, approveHash()
	KindEthSign                           // v > 30, eth_sign 前缀
	KindECDSA                             // v == 27/28, 直接对 EIP-712 哈希签名
)

var ErrMalformedSignature = errors.New("malformed safe signature")

// Signature 单个 owner 的签名
type Signature struct {
	Signer common.Address `json:"signer"`
	Data   []byte         `json:"data"`
}

// Kind 返回签名类型
func Kind(sig []byte) SignatureKind {
	switch v := sig[64]; {
	case v == 0:
		return KindContract
	case v == 1:
		return KindApprovedHash
	case v > 30:
		return KindEthSign
	default:
		return KindECDSA
	}
}

// Split 按 65 字节切分签名串
func Split(signatures []byte) ([][]byte, error) {
	if len(signatures) == 0 || len(signatures)%SignatureLength != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedSignature, len(signatures))
	}
	out := make([][]byte, 0, len(signatures)/SignatureLength)
	for i := 0; i < len(signatures); i += SignatureLength {
		out = append(out, signatures[i:i+SignatureLength])
	}
	return out, nil
}

// Recover 恢复 ECDSA (v=27/28) 与 eth_sign (v=31/32) 签名的签名者
func Recover(dataHash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, ErrMalformedSignature
	}

	digest := dataHash.Bytes()
	v := sig[64]
	switch Kind(sig) {
	case KindEthSign:
		digest = accounts.TextHash(dataHash.Bytes())
		v -= 4
	case KindECDSA:
	default:
		return common.Address{}, fmt.Errorf("%w: unsupported v=%d", ErrMalformedSignature, v)
	}
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: invalid v=%d", ErrMalformedSignature, sig[64])
	}

	rsv := make([]byte, SignatureLength)
	copy(rsv, sig[:64])
	rsv[64] = v - 27

	pub, err := crypto.SigToPub(digest, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign owner 对 Safe 交易哈希签名, 输出 v=27/28 的 Safe 格式
func Sign(key *ecdsa.PrivateKey, dataHash common.Hash) (Signature, error) {
	sig, err := crypto.Sign(dataHash.Bytes(), key)
	if err != nil {
		return Signature{}, err
	}
	sig[64] += 27
	return Signature{Signer: crypto.PubkeyToAddress(key.PublicKey), Data: sig}, nil
}

// Combine 按签名者地址升序拼接 (Safe 要求 owner 严格递增)
func Combine(sigs []Signature) ([]byte, error) {
	sorted := make([]Signature, len(sigs))
	copy(sorted, sigs)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Signer.Bytes(), sorted[j].Signer.Bytes()) < 0
	})

	out := make([]byte, 0, len(sorted)*SignatureLength)
	for i, s := range sorted {
		if len(s.Data) != SignatureLength {
			return nil, fmt.Errorf("%w: signer %s", ErrMalformedSignature, s.Signer.Hex())
		}
		if i > 0 && sorted[i-1].Signer == s.Signer {
			return nil, fmt.Errorf("duplicate signer %s", s.Signer.Hex())
		}
		out = append(out, s.Data...)
	}
	return out, nil
}
