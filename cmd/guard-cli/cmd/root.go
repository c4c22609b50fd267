package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd 代表基础命令, 没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "guard-cli",
	Short: "Safe Guard 命令行工具",
	Long: `Safe 多签 Guard 的离线工具。
支持生成 owner 助记词 Keystore、计算交易 fingerprint 与 Safe 交易哈希、
owner 离线签名与合并签名、治理代币持有人的投票签名, 以及订阅 Guard 事件。`,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("tx", "t", "tx.json", "Safe 交易 JSON 文件路径")
}
