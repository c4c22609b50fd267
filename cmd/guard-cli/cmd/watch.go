package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"guard-core/internal/guard"
	"guard-core/internal/service/mq"
	"guard-core/pkg/database"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "订阅 Guard 事件",
	Long:  `从 Redis Streams 或 Kafka 订阅 guard-server 发布的事件 (入队、否决、冻结、执行) 并打印。`,
	Run: func(cmd *cobra.Command, args []string) {
		mqType, _ := cmd.Flags().GetString("mq")
		topic, _ := cmd.Flags().GetString("topic")
		group, _ := cmd.Flags().GetString("group")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		brokers, _ := cmd.Flags().GetStringSlice("brokers")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var consumer mq.Consumer
		switch mqType {
		case "kafka":
			consumer = mq.NewKafkaConsumer(brokers, group)
		case "redis":
			rdb, err := database.ConnectRedis(redisAddr, "", 0)
			if err != nil {
				fmt.Printf("Redis 连接失败: %v\n", err)
				os.Exit(1)
			}
			defer rdb.Close()
			host, _ := os.Hostname()
			consumer = mq.NewRedisConsumer(rdb, group, fmt.Sprintf("%s-%d", host, os.Getpid()))
		default:
			fmt.Printf("不支持的 mq 类型: %s\n", mqType)
			os.Exit(1)
		}
		defer consumer.Close()

		fmt.Printf("正在订阅 %s (%s), Ctrl+C 退出...\n", topic, mqType)
		err := consumer.Subscribe(ctx, topic, func(msg *mq.Message) error {
			var ev guard.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				fmt.Printf("[%s] 无法解析的消息: %s\n", msg.ID, string(msg.Payload))
				return nil
			}
			printEvent(msg.ID, ev)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			fmt.Printf("订阅失败: %v\n", err)
			os.Exit(1)
		}
	},
}

func printEvent(id string, ev guard.Event) {
	line := fmt.Sprintf("[%s] at=%d %-22s fp=%s", id, ev.At, ev.Kind, ev.Fingerprint.Hex())
	switch ev.Kind {
	case guard.EventTransactionQueued:
		line += " submitter=" + ev.Account.Hex()
	case guard.EventVetoCast:
		line += fmt.Sprintf(" voter=%s weight=%s freeze=%t", ev.Account.Hex(), ev.Weight, ev.Freeze)
	case guard.EventTransactionExecuted:
		line += fmt.Sprintf(" success=%t", ev.Success)
	}
	fmt.Println(line)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("mq", "redis", "消息队列类型: redis 或 kafka")
	watchCmd.Flags().String("topic", "guard_events", "事件主题")
	watchCmd.Flags().String("group", "guard-cli", "消费组")
	watchCmd.Flags().String("redis-addr", "localhost:6379", "Redis 地址")
	watchCmd.Flags().StringSlice("brokers", []string{"localhost:9092"}, "Kafka brokers")
}
