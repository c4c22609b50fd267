package bip32

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EthPathTemplate BIP-44 以太坊派生路径, %d 为账户索引
const EthPathTemplate = "m/44'/60'/0'/0/%d"

var (
	ErrInvalidSeed = errors.New("无效的种子")
	ErrInvalidPath = errors.New("无效的派生路径")
)

// Keychain 封装 hdkeychain.ExtendedKey, 面向 Safe owner 的以太坊账户
type Keychain struct {
	key *hdkeychain.ExtendedKey
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
// 以太坊账户与网络无关, 这里固定使用主网版本字节
func NewMasterKeyFromSeed(seed []byte) (*Keychain, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %w", err)
	}
	return &Keychain{key: master}, nil
}

func (k *Keychain) String() string {
	return k.key.String()
}

func (k *Keychain) IsPrivate() bool {
	return k.key.IsPrivate()
}

// PrivateKey 返回 go-ethereum 可直接用于签名的 ECDSA 私钥
func (k *Keychain) PrivateKey() (*ecdsa.PrivateKey, error) {
	priv, err := k.key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

// Address 返回以太坊地址
func (k *Keychain) Address() (common.Address, error) {
	pub, err := k.key.ECPubKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub.ToECDSA()), nil
}

// DerivePath 解析路径并派生密钥
// 支持格式: m/44'/60'/0'/0/0 或 m/44h/60h/0h/0/0
func (k *Keychain) DerivePath(path string) (*Keychain, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return k, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, ErrInvalidPath
	}

	current := k.key
	for _, segment := range strings.Split(path[2:], "/") {
		hardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") {
			hardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: 路径段 '%s'", ErrInvalidPath, segment)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}

		next, err := current.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("派生子密钥失败: %w", err)
		}
		current = next
	}

	return &Keychain{key: current}, nil
}

// DeriveAccount 按 BIP-44 以太坊路径派生第 index 个账户
func (k *Keychain) DeriveAccount(index uint32) (*Keychain, error) {
	return k.DerivePath(fmt.Sprintf(EthPathTemplate, index))
}
