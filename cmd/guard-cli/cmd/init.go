package cmd

import (
	"fmt"
	"os"
	"syscall"

	"guard-core/pkg/bip32"
	"guard-core/pkg/bip39"
	"guard-core/pkg/keystore"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "创建 owner Keystore",
	Long:  `生成新的 BIP-39 助记词, 使用密码加密保存为 Keystore 文件, 并显示派生出的 owner 地址。`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("keystore")
		accounts, _ := cmd.Flags().GetUint32("accounts")
		light, _ := cmd.Flags().GetBool("light")

		if _, err := os.Stat(output); err == nil {
			fmt.Printf("文件 %s 已存在, 拒绝覆盖\n", output)
			os.Exit(1)
		}

		// 1. 生成助记词 (12 个单词)
		mnemonicService := bip39.NewMnemonicService()
		mnemonic, err := mnemonicService.GenerateMnemonic(128)
		if err != nil {
			fmt.Printf("生成助记词失败: %v\n", err)
			os.Exit(1)
		}

		// 2. 输入两次密码
		fmt.Print("请设置 Keystore 密码: ")
		first, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Println("读取密码失败:", err)
			os.Exit(1)
		}
		fmt.Print("请再次输入密码: ")
		second, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Println("读取密码失败:", err)
			os.Exit(1)
		}
		if string(first) != string(second) {
			fmt.Println("两次输入的密码不一致")
			os.Exit(1)
		}

		// 3. 加密并保存
		scryptN := keystore.StandardScryptN
		if light {
			scryptN = keystore.LightScryptN
		}
		encrypted, err := keystore.EncryptMnemonicWithCost(mnemonic, string(first), scryptN)
		if err != nil {
			fmt.Printf("加密失败: %v\n", err)
			os.Exit(1)
		}
		if err := encrypted.SaveToFile(output); err != nil {
			fmt.Printf("保存 Keystore 失败: %v\n", err)
			os.Exit(1)
		}

		// 4. 派生 owner 地址
		seed, err := mnemonicService.MnemonicToSeed(mnemonic, "")
		if err != nil {
			fmt.Printf("生成种子失败: %v\n", err)
			os.Exit(1)
		}
		master, err := bip32.NewMasterKeyFromSeed(seed)
		if err != nil {
			fmt.Printf("生成主密钥失败: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("---------------------------------------------------")
		fmt.Printf("助记词 (Mnemonic): \n%s\n", mnemonic)
		fmt.Println("---------------------------------------------------")
		for i := uint32(0); i < accounts; i++ {
			account, err := master.DeriveAccount(i)
			if err != nil {
				fmt.Printf("派生账户 %d 失败: %v\n", i, err)
				os.Exit(1)
			}
			addr, _ := account.Address()
			fmt.Printf("Account #%d [%s]: %s\n", i, fmt.Sprintf(bip32.EthPathTemplate, i), addr.Hex())
		}
		fmt.Println("---------------------------------------------------")
		fmt.Printf("Keystore 已保存到: %s\n", output)
		fmt.Println("请离线备份助记词, 丢失后无法恢复 owner 私钥。")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("keystore", "k", "owner.json", "Keystore 输出路径")
	initCmd.Flags().Uint32("accounts", 1, "显示的派生账户数量")
	initCmd.Flags().Bool("light", false, "使用低成本 scrypt 参数")
}
