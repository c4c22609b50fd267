package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"guard-core/internal/guard"
	"guard-core/pkg/config"
	"guard-core/pkg/errno"
	"guard-core/pkg/logger"
	"guard-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Deployment Guard 所保护的 Safe 及治理代币 (setUp 参数)
type Deployment struct {
	ChainID    *big.Int
	Safe       common.Address
	VotesToken common.Address
	Owner      common.Address
	Clock      string
}

// TransactionStatus 单笔交易的查询结果
type TransactionStatus struct {
	Fingerprint  common.Hash
	Queued       bool
	QueuedAt     uint64
	Submitter    common.Address
	DelayElapsed bool
	VetoWeight   *big.Int
	Vetoed       bool
}

// GuardInfo Guard 参数快照
type GuardInfo struct {
	Deployment Deployment
	Config     guard.Config
}

// GuardService 在 guard.Guard 之上提供时钟, 投票签名校验, 日志与指标
type GuardService struct {
	guard      *guard.Guard
	clock      guard.Clock
	deployment Deployment
}

func NewGuardService(g *guard.Guard, clock guard.Clock, d Deployment) *GuardService {
	if d.ChainID == nil {
		d.ChainID = new(big.Int)
	}
	return &GuardService{guard: g, clock: clock, deployment: d}
}

// BuildGuardConfig 把配置文件中的十进制阈值解析成 guard.Config
func BuildGuardConfig(c config.GuardConfig) (guard.Config, error) {
	veto, ok := new(big.Int).SetString(c.VetoThreshold, 10)
	if !ok {
		return guard.Config{}, fmt.Errorf("invalid guard.veto_threshold %q", c.VetoThreshold)
	}
	freeze, ok := new(big.Int).SetString(c.FreezeThreshold, 10)
	if !ok {
		return guard.Config{}, fmt.Errorf("invalid guard.freeze_threshold %q", c.FreezeThreshold)
	}
	cfg := guard.Config{
		ExecutionDelay:  c.ExecutionDelay,
		VetoThreshold:   veto,
		FreezeThreshold: freeze,
		FreezeWindow:    c.FreezeWindow,
		VotingWindow:    c.VotingWindow,
	}
	return cfg, cfg.Validate()
}

func (s *GuardService) now(ctx context.Context) (uint64, error) {
	now, err := s.clock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: read clock: %v", errno.ErrUpstream, err)
	}
	return now, nil
}

func (s *GuardService) Info() GuardInfo {
	d := s.deployment
	d.ChainID = new(big.Int).Set(d.ChainID)
	return GuardInfo{Deployment: d, Config: s.guard.Config()}
}

func (s *GuardService) Fingerprint(tx guard.Transaction) common.Hash {
	return guard.Fingerprint(tx)
}

// Queue 校验 Safe 多签后入队
func (s *GuardService) Queue(ctx context.Context, tx guard.Transaction, signatures []byte, submitter common.Address) (guard.QueueEntry, error) {
	now, err := s.now(ctx)
	if err != nil {
		return guard.QueueEntry{}, err
	}

	entry, err := s.guard.Queue(ctx, tx, signatures, submitter, now)
	if err != nil {
		logger.Warn("queue transaction rejected",
			logger.Address("submitter", submitter), zap.Uint64("now", now), zap.Error(err))
		return guard.QueueEntry{}, err
	}

	monitor.Business.TransactionsQueuedTotal.Inc()
	logger.Info("transaction queued",
		logger.Fingerprint(entry.Fingerprint),
		logger.Address("submitter", submitter),
		zap.Uint64("queued_at", entry.QueuedAt))
	return entry, nil
}

func (s *GuardService) Status(ctx context.Context, fp common.Hash) (TransactionStatus, error) {
	status := TransactionStatus{Fingerprint: fp, VetoWeight: new(big.Int)}

	entry, err := s.guard.Entry(ctx, fp)
	if errors.Is(err, errno.ErrNotQueued) {
		return status, nil
	}
	if err != nil {
		return status, err
	}
	now, err := s.now(ctx)
	if err != nil {
		return status, err
	}

	status.Queued = true
	status.QueuedAt = entry.QueuedAt
	status.Submitter = entry.Submitter
	if status.DelayElapsed, err = s.guard.DelayElapsed(ctx, fp, now); err != nil {
		return status, err
	}
	if status.VetoWeight, err = s.guard.VetoWeight(ctx, fp); err != nil {
		return status, err
	}
	if status.Vetoed, err = s.guard.IsVetoed(ctx, fp); err != nil {
		return status, err
	}
	return status, nil
}

// VoteMessage 投票人需要签署的消息哈希, window 为当前入队检查点 (TransactionStatus.QueuedAt)
func (s *GuardService) VoteMessage(fp common.Hash, window uint64, freeze bool) common.Hash {
	return VoteMessageHash(s.deployment.ChainID, s.deployment.Safe, fp, window, freeze)
}

// Vote 校验投票签名后计票 (castVeto)
func (s *GuardService) Vote(ctx context.Context, fp common.Hash, voter common.Address, freeze bool, signature []byte) (guard.VoteReceipt, error) {
	receipt, err := s.vote(ctx, fp, voter, freeze, signature)
	if err != nil {
		monitor.Business.VoteRejectedTotal.WithLabelValues(Reason(err)).Inc()
		logger.Warn("vote rejected",
			logger.Fingerprint(fp), logger.Address("voter", voter), zap.Error(err))
		return guard.VoteReceipt{}, err
	}

	// 指标与日志
	monitor.Business.VotesTotal.WithLabelValues("veto").Inc()
	if receipt.FreezeCounted {
		monitor.Business.VotesTotal.WithLabelValues("freeze").Inc()
	}
	if receipt.Frozen {
		monitor.Business.SystemFrozen.Set(1)
	}
	logger.Info("vote cast",
		logger.Fingerprint(fp),
		logger.Address("voter", voter),
		zap.String("weight", receipt.Weight.String()),
		zap.String("veto_weight", receipt.VetoWeight.String()),
		zap.Bool("vetoed", receipt.Vetoed),
		zap.Bool("freeze_counted", receipt.FreezeCounted),
		zap.Bool("frozen", receipt.Frozen))
	return receipt, nil
}

func (s *GuardService) vote(ctx context.Context, fp common.Hash, voter common.Address, freeze bool, signature []byte) (guard.VoteReceipt, error) {
	// 1. 签名绑定当前否决窗口
	entry, err := s.guard.Entry(ctx, fp)
	if errors.Is(err, errno.ErrNotQueued) {
		return guard.VoteReceipt{}, errno.ErrNotYetQueued
	}
	if err != nil {
		return guard.VoteReceipt{}, err
	}

	// 2. 签名必须来自 voter
	signer, err := RecoverVoter(s.VoteMessage(fp, entry.QueuedAt, freeze), signature)
	if err != nil {
		return guard.VoteReceipt{}, err
	}
	if signer != voter {
		return guard.VoteReceipt{}, errno.ErrInvalidVoteSignature.WithMessage(
			fmt.Sprintf("signature from %s, expected %s in window %d", signer.Hex(), voter.Hex(), entry.QueuedAt))
	}

	// 3. 计票, 期间被重新入队则拒绝
	now, err := s.now(ctx)
	if err != nil {
		return guard.VoteReceipt{}, err
	}
	return s.guard.VoteInWindow(ctx, fp, entry.QueuedAt, voter, freeze, now)
}

// Check Safe 执行前钩子
func (s *GuardService) Check(ctx context.Context, fp common.Hash) error {
	now, err := s.now(ctx)
	if err != nil {
		return err
	}
	err = s.guard.CheckTransaction(ctx, fp, now)
	monitor.Business.ExecutionChecksTotal.WithLabelValues(Reason(err)).Inc()
	if err != nil {
		logger.Debug("execution check failed", logger.Fingerprint(fp), zap.Error(err))
	}
	return err
}

// Executed Safe 执行后钩子
func (s *GuardService) Executed(ctx context.Context, fp common.Hash, success bool) error {
	now, err := s.now(ctx)
	if err != nil {
		return err
	}
	if err := s.guard.CheckAfterExecution(ctx, fp, success, now); err != nil {
		return err
	}
	monitor.Business.ExecutionsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	logger.Info("transaction executed", logger.Fingerprint(fp), zap.Bool("success", success))
	return nil
}

func (s *GuardService) FreezeStatus(ctx context.Context) (guard.FreezeStatus, error) {
	now, err := s.now(ctx)
	if err != nil {
		return guard.FreezeStatus{}, err
	}
	return s.guard.FreezeStatus(ctx, now)
}

// RefreshGauges 刷新冻结状态与入队数量指标
func (s *GuardService) RefreshGauges(ctx context.Context) error {
	status, err := s.FreezeStatus(ctx)
	if err != nil {
		return err
	}
	n, err := s.guard.QueuedCount(ctx)
	if err != nil {
		return err
	}

	frozen := 0.0
	if status.Frozen {
		frozen = 1
	}
	monitor.Business.SystemFrozen.Set(frozen)
	monitor.Business.QueuedEntries.Set(float64(n))
	return nil
}

// Reason 错误对应的指标标签, nil 为 allowed
func Reason(err error) string {
	switch {
	case err == nil:
		return "allowed"
	case errors.Is(err, errno.ErrNotQueued):
		return "not_queued"
	case errors.Is(err, errno.ErrDelayNotElapsed):
		return "delay_not_elapsed"
	case errors.Is(err, errno.ErrVetoed):
		return "vetoed"
	case errors.Is(err, errno.ErrSystemFrozen):
		return "frozen"
	case errors.Is(err, errno.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, errno.ErrVotingClosed):
		return "voting_closed"
	case errors.Is(err, errno.ErrInvalidVoteSignature):
		return "invalid_signature"
	case errors.Is(err, errno.ErrInvalidApprovalProof):
		return "invalid_approval"
	case errors.Is(err, errno.ErrNoVotingPower):
		return "no_votes"
	default:
		return "error"
	}
}
