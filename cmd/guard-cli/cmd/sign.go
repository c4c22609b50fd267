package cmd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"guard-core/internal/guard"
	"guard-core/internal/handler/request"
	"guard-core/internal/safe"
	"guard-core/internal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

// OwnerSignature owner 离线签名文件
type OwnerSignature struct {
	SafeTxHash string `json:"safe_tx_hash"`
	Signer     string `json:"signer"`
	Signature  string `json:"signature"`
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "owner 离线签名 Safe 交易",
	Long:  `计算 Safe 交易哈希并使用 Keystore 中的 owner 私钥签名, 输出签名文件供 combine 合并。`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		// 1. 读取交易, 计算哈希
		tx := mustLoadTransaction(cmd)
		domain, nonce := mustDomainAndNonce(cmd)
		safeTxHash := domain.TransactionHash(tx, nonce)

		fmt.Println("\n================ 待签名交易 ================")
		fmt.Printf("Safe:        %s (Chain: %s)\n", domain.Safe.Hex(), domain.ChainID)
		fmt.Printf("To:          %s\n", tx.To.Hex())
		fmt.Printf("Value:       %s\n", tx.Value)
		fmt.Printf("Nonce:       %s\n", nonce)
		fmt.Printf("SafeTxHash:  %s\n", safeTxHash.Hex())
		fmt.Println("============================================")

		// 2. 解锁 owner
		key, addr, err := unlockAccount(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// 3. 签名
		sig, err := safe.Sign(key, safeTxHash)
		if err != nil {
			fmt.Printf("签名失败: %v\n", err)
			os.Exit(1)
		}

		out := OwnerSignature{
			SafeTxHash: safeTxHash.Hex(),
			Signer:     addr.Hex(),
			Signature:  hexutil.Encode(sig.Data),
		}
		writeJSON(output, out)
		fmt.Printf("\n✅ 签名成功! Signer: %s\n", addr.Hex())
	},
}

var combineCmd = &cobra.Command{
	Use:   "combine <sig.json>...",
	Short: "合并 owner 签名",
	Long:  `按 owner 地址升序拼接多个签名文件, 输出 Safe execTransaction 与 Guard 入队所需的 signatures。`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			sigs []safe.Signature
			hash string
		)
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("读取 %s 失败: %v\n", path, err)
				os.Exit(1)
			}
			var s OwnerSignature
			if err := json.Unmarshal(data, &s); err != nil {
				fmt.Printf("解析 %s 失败: %v\n", path, err)
				os.Exit(1)
			}
			if hash != "" && s.SafeTxHash != hash {
				fmt.Printf("%s 签署的是另一笔交易: %s\n", path, s.SafeTxHash)
				os.Exit(1)
			}
			hash = s.SafeTxHash

			raw, err := hexutil.Decode(s.Signature)
			if err != nil {
				fmt.Printf("%s 签名格式错误: %v\n", path, err)
				os.Exit(1)
			}
			// 重新恢复签名者, 防止文件中的 signer 被篡改
			signer, err := safe.Recover(common.HexToHash(s.SafeTxHash), raw)
			if err != nil || signer != common.HexToAddress(s.Signer) {
				fmt.Printf("%s 签名与 signer 不匹配\n", path)
				os.Exit(1)
			}
			sigs = append(sigs, safe.Signature{Signer: signer, Data: raw})
		}

		combined, err := safe.Combine(sigs)
		if err != nil {
			fmt.Printf("合并失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hexutil.Encode(combined))
	},
}

var voteSignCmd = &cobra.Command{
	Use:   "vote-sign [fingerprint]",
	Short: "治理代币持有人签署否决/冻结投票",
	Long: `签署 Guard 投票消息, 输出可直接提交到 POST /api/v1/transactions/{fingerprint}/votes 的请求体。
未指定 fingerprint 时根据 --tx 计算。
--window 为当前入队检查点 (GET /api/v1/transactions/{fingerprint} 返回的 queued_at),
交易重新入队后需要重新签署。`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		chainID, _ := cmd.Flags().GetInt64("chain-id")
		safeAddr, _ := cmd.Flags().GetString("safe")
		freeze, _ := cmd.Flags().GetBool("freeze")
		window, _ := cmd.Flags().GetUint64("window")
		output, _ := cmd.Flags().GetString("output")

		if !common.IsHexAddress(safeAddr) {
			fmt.Println("--safe 必须是合法地址")
			os.Exit(1)
		}
		if !cmd.Flags().Changed("window") {
			fmt.Println("必须指定 --window (交易的 queued_at)")
			os.Exit(1)
		}

		var fp common.Hash
		if len(args) == 1 {
			raw, err := hexutil.Decode(args[0])
			if err != nil || len(raw) != common.HashLength {
				fmt.Printf("无效的 fingerprint: %s\n", args[0])
				os.Exit(1)
			}
			fp = common.BytesToHash(raw)
		} else {
			fp = guard.Fingerprint(mustLoadTransaction(cmd))
		}

		msg := service.VoteMessageHash(big.NewInt(chainID), common.HexToAddress(safeAddr), fp, window, freeze)
		fmt.Printf("Fingerprint: %s\nWindow:      %d\nFreeze:      %t\nMessage:     %s\n", fp.Hex(), window, freeze, msg.Hex())

		key, addr, err := unlockAccount(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		sig, err := service.SignVote(key, msg)
		if err != nil {
			fmt.Printf("签名失败: %v\n", err)
			os.Exit(1)
		}

		writeJSON(output, request.CastVoteRequest{
			Voter:     addr.Hex(),
			Freeze:    freeze,
			Signature: hexutil.Encode(sig),
		})
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	addDomainFlags(signCmd)
	addKeyFlags(signCmd)
	signCmd.Flags().StringP("output", "o", "", "签名输出文件, 为空时打印到标准输出")

	rootCmd.AddCommand(combineCmd)

	rootCmd.AddCommand(voteSignCmd)
	addKeyFlags(voteSignCmd)
	voteSignCmd.Flags().Int64("chain-id", 31337, "链 ID")
	voteSignCmd.Flags().String("safe", "", "Safe 合约地址")
	voteSignCmd.Flags().Uint64("window", 0, "入队检查点 queued_at")
	voteSignCmd.Flags().Bool("freeze", false, "同时投冻结票")
	voteSignCmd.Flags().StringP("output", "o", "", "请求体输出文件, 为空时打印到标准输出")
}

func writeJSON(path string, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	if path == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Printf("保存结果失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("已保存到: %s\n", path)
}
