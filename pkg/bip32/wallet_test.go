package bip32

import (
	"encoding/hex"
	"testing"

	"guard-core/pkg/bip39"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAccount_KnownAddress(t *testing.T) {
	// Hardhat 默认助记词, 第 0 个账户地址是公开已知的
	mnemonic := "test test test test test test test test test test test junk"
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(mnemonic, "")
	require.NoError(t, err)

	master, err := NewMasterKeyFromSeed(seed)
	require.NoError(t, err)

	account, err := master.DeriveAccount(0)
	require.NoError(t, err)

	addr, err := account.Address()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), addr)

	priv, err := account.PrivateKey()
	require.NoError(t, err)
	assert.NotNil(t, priv)
}

func TestDerivePath_Invalid(t *testing.T) {
	seed, _ := hex.DecodeString("fffcf9f6da3247d8a846f4b6113e6173")
	master, err := NewMasterKeyFromSeed(seed)
	require.NoError(t, err)

	_, err = master.DerivePath("44'/60'")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = master.DerivePath("m/abc")
	assert.ErrorIs(t, err, ErrInvalidPath)

	same, err := master.DerivePath("m")
	require.NoError(t, err)
	assert.Equal(t, master.String(), same.String())
}

func TestNewMasterKeyFromSeed_InvalidSeed(t *testing.T) {
	_, err := NewMasterKeyFromSeed([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidSeed)
}
