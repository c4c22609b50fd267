package main

import (
	"context"
	"math/big"
	"time"

	"guard-core/internal/chain"
	"guard-core/internal/guard"
	"guard-core/internal/handler"
	"guard-core/internal/model"
	"guard-core/internal/repository"
	"guard-core/internal/safe"
	"guard-core/internal/server"
	"guard-core/internal/service"
	"guard-core/internal/service/mq"
	"guard-core/pkg/cache"
	"guard-core/pkg/config"
	"guard-core/pkg/database"
	"guard-core/pkg/logger"
	"guard-core/pkg/monitor"
	"guard-core/pkg/utils/lock"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// @title Guard Core API
// @version 1.0
// @description Safe 交易守卫: 入队延迟, 代币加权否决与全局冻结
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config 与 Logger
	config.Init()
	logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
	defer logger.Sync()
	monitor.Init()

	isDev := config.Global.App.Env == "development"
	chainCfg := config.Global.Chain

	// 1. 解析 Guard 参数 (setUp)
	guardCfg, err := service.BuildGuardConfig(config.Global.Guard)
	if err != nil {
		logger.Fatal("Guard 配置无效", zap.Error(err))
	}
	if !common.IsHexAddress(chainCfg.SafeAddress) || !common.IsHexAddress(chainCfg.VotesToken) {
		logger.Fatal("chain.safe_address 与 chain.votes_token 必须是合法地址")
	}
	chainID := big.NewInt(chainCfg.ChainID)
	safeAddr := common.HexToAddress(chainCfg.SafeAddress)

	// 2. 连接数据库与 Redis
	db, err := database.ConnectPostgres(config.Global.DB.DSN(), isDev)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	// 3. 开发环境自动建表, 生产环境使用 cmd/migrate
	if isDev {
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("AutoMigrate 失败", zap.Error(err))
		}
		logger.Info("AutoMigrate 完成")
	}

	// 4. 连接链上节点
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eth, err := ethclient.DialContext(ctx, chainCfg.RpcUrl)
	if err != nil {
		logger.Fatal("RPC 连接失败", zap.String("rpc", chainCfg.RpcUrl), zap.Error(err))
	}
	if remote, err := eth.ChainID(ctx); err != nil {
		logger.Warn("读取 chainId 失败", zap.Error(err))
	} else if remote.Cmp(chainID) != 0 {
		logger.Fatal("chain.chain_id 与节点不一致", zap.String("config", chainID.String()), zap.String("node", remote.String()))
	}
	safeClient := chain.NewSafeClient(eth, chainID, safeAddr)

	// 5. 时钟, 多签校验, 投票权来源
	// 检查点单位必须与代币的 ERC-6372 时钟一致, 否则 getPastVotes 退化为读取实时余额
	token := chain.NewVotesToken(eth, common.HexToAddress(chainCfg.VotesToken))
	if err := token.RequireClock(ctx, config.Global.Guard.Clock); err != nil {
		logger.Fatal("guard.clock 与治理代币时钟不一致", zap.Error(err))
	}
	var clock guard.Clock = chain.NewBlockClock(eth)
	if config.Global.Guard.Clock == "wall" {
		clock = guard.WallClock{}
	}

	var verifier guard.ApprovalVerifier = safeClient
	if config.Global.Guard.Verifier == "local" {
		owners := make([]common.Address, 0, len(config.Global.Guard.Owners))
		for _, o := range config.Global.Guard.Owners {
			owners = append(owners, common.HexToAddress(o))
		}
		local, err := safe.NewLocalVerifier(safeClient.Domain(), owners, config.Global.Guard.Threshold, safeClient)
		if err != nil {
			logger.Fatal("本地多签校验器初始化失败", zap.Error(err))
		}
		verifier = local
	}
	logger.Info("多签校验方式", zap.String("verifier", config.Global.Guard.Verifier), zap.String("clock", config.Global.Guard.Clock))

	// L1: Memory, L2: Redis
	powerTTL := time.Duration(config.Global.Cache.PowerTTLSeconds) * time.Second
	localCache := cache.NewMemoryCache(time.Minute, 5*time.Minute)
	redisCache := cache.NewRedisCache(rdb, "guard:")
	multiCache := cache.NewMultiLevelCache(localCache, redisCache, time.Minute)
	// 是否已成为历史检查点以代币时钟为准
	power := service.NewCachedPowerSource(token, multiCache, token, powerTTL)

	// 6. 存储与 Guard 核心
	store, err := repository.NewGormStore(db, config.Global.Kafka.Topic)
	if err != nil {
		logger.Fatal("初始化 GuardStore 失败", zap.Error(err))
	}
	g, err := guard.New(guardCfg, store, verifier, power)
	if err != nil {
		logger.Fatal("初始化 Guard 失败", zap.Error(err))
	}

	// 7. 业务服务
	guardService := service.NewGuardService(g, clock, service.Deployment{
		ChainID:    chainID,
		Safe:       safeAddr,
		VotesToken: common.HexToAddress(chainCfg.VotesToken),
		Owner:      common.HexToAddress(chainCfg.Owner),
		Clock:      config.Global.Guard.Clock,
	})

	// 8. 消息队列与 outbox 中继
	var producer mq.Producer
	if config.Global.Redis.MQType == "kafka" {
		logger.Info("使用 Kafka 作为消息队列...")
		producer = mq.NewKafkaProducer(config.Global.Kafka.Brokers)
	} else {
		logger.Info("使用 Redis Streams 作为消息队列...")
		producer = mq.NewRedisProducer(rdb, 100000)
	}
	outbox := repository.NewOutboxRepository(db)
	relayService := service.NewRelayService(outbox, producer)
	go relayService.Start(ctx)

	// 9. 定时任务
	cronService := service.NewCronService(lock.NewRedisLock(rdb), guardService, outbox)
	if err := cronService.Start(); err != nil {
		logger.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 10. HTTP + gRPC
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取 sql.DB 失败", zap.Error(err))
	}
	healthHandler := handler.NewHealthHandler(map[string]handler.Checker{
		"postgres": sqlDB.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"rpc": func(ctx context.Context) error {
			_, err := eth.BlockNumber(ctx)
			return err
		},
	})
	r := server.NewHTTPRouter(handler.NewGuardHandler(guardService), healthHandler)
	grpcServer := server.NewGRPCServer(guardService)

	app, err := server.New(server.Config{
		HttpPort:        config.Global.App.HttpPort,
		GrpcPort:        config.Global.App.GrpcPort,
		ShutdownTimeout: time.Duration(config.Global.App.ShutdownSeconds) * time.Second,
	}, r, grpcServer)
	if err != nil {
		logger.Fatal("应用启动失败", zap.Error(err))
	}

	// 运行 (阻塞)
	if err := app.Run(ctx); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
	}

	// 11. 退出后资源清理
	cancel()
	cronService.Stop()
	if err := producer.Close(); err != nil {
		logger.Warn("关闭 MQ Producer 失败", zap.Error(err))
	}
	eth.Close()
	_ = sqlDB.Close()
	_ = rdb.Close()
	logger.Info("系统已退出")
}
