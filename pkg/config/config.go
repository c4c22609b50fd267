package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	DB    DBConfig    `mapstructure:"db"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	Chain ChainConfig `mapstructure:"chain"`
	Guard GuardConfig `mapstructure:"guard"`
	Cache CacheConfig `mapstructure:"cache"`
}

type AppConfig struct {
	Env             string `mapstructure:"env"`
	LogLevel        string `mapstructure:"log_level"` // 为空时按 env 取默认级别
	HttpPort        string `mapstructure:"http_port"`
	GrpcPort        string `mapstructure:"grpc_port"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ChainConfig 链上依赖: Safe 钱包与治理代币
type ChainConfig struct {
	RpcUrl      string `mapstructure:"rpc_url"`
	ChainID     int64  `mapstructure:"chain_id"`
	SafeAddress string `mapstructure:"safe_address"`
	VotesToken  string `mapstructure:"votes_token"` // ERC20Votes 合约 (vetoERC20Voting)
	Owner       string `mapstructure:"owner"`       // Guard Owner, 仅用于展示
}

// GuardConfig Guard 参数, 启动后不可变
// 时间单位由 Clock 决定: "block" 为区块数, "wall" 为秒
type GuardConfig struct {
	Clock           string   `mapstructure:"clock"`
	ExecutionDelay  uint64   `mapstructure:"execution_delay"`
	VetoThreshold   string   `mapstructure:"veto_threshold"`   // 十进制字符串, 支持 uint256
	FreezeThreshold string   `mapstructure:"freeze_threshold"` // 十进制字符串, 支持 uint256
	FreezeWindow    uint64   `mapstructure:"freeze_window"`
	VotingWindow    uint64   `mapstructure:"voting_window"` // 0 表示不限制
	Verifier        string   `mapstructure:"verifier"`      // "chain" 或 "local"
	Owners          []string `mapstructure:"owners"`        // verifier=local 时的 Safe owners
	Threshold       int      `mapstructure:"threshold"`     // verifier=local 时的签名门限
}

type CacheConfig struct {
	PowerTTLSeconds int `mapstructure:"power_ttl_seconds"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量覆盖, 例如 GUARD_VETO_THRESHOLD
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// DSN 返回 gorm 使用的 Postgres 连接串
func (c DBConfig) DSN() string {
	return "host=" + c.Host + " user=" + c.User + " password=" + c.Password +
		" dbname=" + c.Name + " port=" + c.Port + " sslmode=disable TimeZone=UTC"
}

// MigrateURL 返回 golang-migrate 使用的 URL
func (c DBConfig) MigrateURL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=disable"
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")
	viper.SetDefault("app.grpc_port", "50051")
	viper.SetDefault("app.shutdown_seconds", 10)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "guard_user")
	viper.SetDefault("db.password", "guard_password")
	viper.SetDefault("db.name", "guard_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "guard_events")

	viper.SetDefault("chain.rpc_url", "http://localhost:8545")
	viper.SetDefault("chain.chain_id", 31337)

	viper.SetDefault("guard.clock", "block")
	viper.SetDefault("guard.execution_delay", 10)
	viper.SetDefault("guard.veto_threshold", "1000")
	viper.SetDefault("guard.freeze_threshold", "1000")
	viper.SetDefault("guard.freeze_window", 100)
	viper.SetDefault("guard.voting_window", 0)
	viper.SetDefault("guard.verifier", "chain")

	viper.SetDefault("cache.power_ttl_seconds", 3600)
}
