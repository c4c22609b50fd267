package service

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// VoteDomainTag 投票签名的域标签
const VoteDomainTag = "guard-core:vote"

var voteArgs = func() abi.Arguments {
	tString, _ := abi.NewType("string", "", nil)
	tUint256, _ := abi.NewType("uint256", "", nil)
	tAddress, _ := abi.NewType("address", "", nil)
	tBytes32, _ := abi.NewType("bytes32", "", nil)
	tBool, _ := abi.NewType("bool", "", nil)
	return abi.Arguments{{Type: tString}, {Type: tUint256}, {Type: tAddress}, {Type: tBytes32}, {Type: tUint256}, {Type: tBool}}
}()

// VoteMessageHash keccak256(abi.encode("guard-core:vote", chainId, safe, fingerprint, window, freeze))
//
// window 是入队检查点 (queuedAt), 重新入队后旧签名随之失效
func VoteMessageHash(chainID *big.Int, safe common.Address, fp common.Hash, window uint64, freeze bool) common.Hash {
	if chainID == nil {
		chainID = new(big.Int)
	}
	packed, err := voteArgs.Pack(VoteDomainTag, chainID, safe, [32]byte(fp), new(big.Int).SetUint64(window), freeze)
	if err != nil {
		panic("service: vote message encoding: " + err.Error())
	}
	return crypto.Keccak256Hash(packed)
}

// SignVote 以 personal_sign 方式签署投票消息, 返回 65 字节 r|s|v (v=27/28)
func SignVote(key *ecdsa.PrivateKey, msgHash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msgHash.Bytes()), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// RecoverVoter 恢复投票签名者, v 接受 0/1 与 27/28
func RecoverVoter(msgHash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errno.ErrInvalidVoteSignature.WithMessage(fmt.Sprintf("signature must be %d bytes", crypto.SignatureLength))
	}
	rsv := make([]byte, crypto.SignatureLength)
	copy(rsv, sig)
	if rsv[64] >= 27 {
		rsv[64] -= 27
	}
	if rsv[64] > 1 {
		return common.Address{}, errno.ErrInvalidVoteSignature.WithMessage("invalid recovery id")
	}

	pub, err := crypto.SigToPub(accounts.TextHash(msgHash.Bytes()), rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", errno.ErrInvalidVoteSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
