package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"syscall"

	"guard-core/pkg/bip32"
	"guard-core/pkg/bip39"
	"guard-core/pkg/keystore"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func addKeyFlags(c *cobra.Command) {
	c.Flags().StringP("keystore", "k", "owner.json", "Keystore 文件路径")
	c.Flags().Uint32P("account", "a", 0, "BIP-44 账户索引")
}

// unlockAccount 解密 Keystore 并派生指定账户的私钥
func unlockAccount(cmd *cobra.Command) (*ecdsa.PrivateKey, common.Address, error) {
	keystoreFile, _ := cmd.Flags().GetString("keystore")
	index, _ := cmd.Flags().GetUint32("account")

	encrypted, err := keystore.LoadFromFile(keystoreFile)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("加载 Keystore 失败: %w", err)
	}

	fmt.Print("请输入 Keystore 密码以确认签名: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("读取密码失败: %w", err)
	}

	mnemonic, err := keystore.DecryptMnemonic(encrypted, string(password))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("解密失败 (密码错误?): %w", err)
	}
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(mnemonic, "")
	if err != nil {
		return nil, common.Address{}, err
	}
	master, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, common.Address{}, err
	}
	account, err := master.DeriveAccount(index)
	if err != nil {
		return nil, common.Address{}, err
	}

	key, err := account.PrivateKey()
	if err != nil {
		return nil, common.Address{}, err
	}
	addr, err := account.Address()
	if err != nil {
		return nil, common.Address{}, err
	}
	return key, addr, nil
}
