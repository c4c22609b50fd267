package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"guard-core/internal/chain"
	"guard-core/internal/guard"
	"guard-core/internal/handler/request"
	"guard-core/internal/safe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "计算交易 fingerprint",
	Long:  `读取 Safe 交易 JSON, 输出 Guard 使用的交易 fingerprint (不含 nonce)。`,
	Run: func(cmd *cobra.Command, args []string) {
		tx := mustLoadTransaction(cmd)
		fmt.Println(guard.Fingerprint(tx).Hex())
	},
}

var safeHashCmd = &cobra.Command{
	Use:   "safe-hash",
	Short: "计算 Safe 交易哈希 (EIP-712)",
	Long: `读取 Safe 交易 JSON, 按 chainId、Safe 地址与 nonce 计算 owner 需要签名的交易哈希。
指定 --rpc 时从链上读取当前 nonce。`,
	Run: func(cmd *cobra.Command, args []string) {
		tx := mustLoadTransaction(cmd)
		domain, nonce := mustDomainAndNonce(cmd)

		fmt.Println("\n================ Safe 交易 ================")
		fmt.Printf("Safe:        %s (Chain: %s)\n", domain.Safe.Hex(), domain.ChainID)
		fmt.Printf("To:          %s\n", tx.To.Hex())
		fmt.Printf("Value:       %s\n", tx.Value)
		fmt.Printf("Operation:   %d\n", tx.Operation)
		fmt.Printf("Nonce:       %s\n", nonce)
		fmt.Printf("Fingerprint: %s\n", guard.Fingerprint(tx).Hex())
		fmt.Println("===========================================")
		fmt.Printf("SafeTxHash:  %s\n", domain.TransactionHash(tx, nonce).Hex())
	},
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(safeHashCmd)
	addDomainFlags(safeHashCmd)
}

// addDomainFlags Safe 域参数, sign 命令复用
func addDomainFlags(c *cobra.Command) {
	c.Flags().Int64("chain-id", 31337, "链 ID")
	c.Flags().String("safe", "", "Safe 合约地址")
	c.Flags().String("nonce", "", "Safe nonce, 为空时需指定 --rpc")
	c.Flags().String("rpc", "", "节点 RPC 地址, 用于读取 nonce")
}

func mustLoadTransaction(cmd *cobra.Command) guard.Transaction {
	path, _ := cmd.Flags().GetString("tx")
	tx, err := loadTransaction(path)
	if err != nil {
		fmt.Printf("读取交易失败: %v\n", err)
		os.Exit(1)
	}
	return tx
}

// loadTransaction JSON 格式与 HTTP 接口的 transaction 字段一致
func loadTransaction(path string) (guard.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return guard.Transaction{}, err
	}
	var req request.TransactionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return guard.Transaction{}, fmt.Errorf("解析交易文件失败: %w", err)
	}
	if !common.IsHexAddress(req.To) {
		return guard.Transaction{}, fmt.Errorf("to 不是合法地址: %q", req.To)
	}
	if req.Operation > 1 {
		return guard.Transaction{}, fmt.Errorf("operation 只能是 0 或 1")
	}
	return req.ToTransaction()
}

func mustDomainAndNonce(cmd *cobra.Command) (safe.Domain, *big.Int) {
	chainID, _ := cmd.Flags().GetInt64("chain-id")
	safeAddr, _ := cmd.Flags().GetString("safe")
	nonceStr, _ := cmd.Flags().GetString("nonce")
	rpcURL, _ := cmd.Flags().GetString("rpc")

	if !common.IsHexAddress(safeAddr) {
		fmt.Println("--safe 必须是合法地址")
		os.Exit(1)
	}
	domain := safe.Domain{ChainID: big.NewInt(chainID), Safe: common.HexToAddress(safeAddr)}

	if nonceStr != "" {
		nonce, ok := new(big.Int).SetString(nonceStr, 10)
		if !ok || nonce.Sign() < 0 {
			fmt.Printf("无效的 nonce: %s\n", nonceStr)
			os.Exit(1)
		}
		return domain, nonce
	}
	if rpcURL == "" {
		fmt.Println("需要指定 --nonce 或 --rpc")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		fmt.Printf("连接节点失败: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	nonce, err := chain.NewSafeClient(client, domain.ChainID, domain.Safe).Nonce(ctx)
	if err != nil {
		fmt.Printf("读取 Safe nonce 失败: %v\n", err)
		os.Exit(1)
	}
	return domain, nonce
}
