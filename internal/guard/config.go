package guard

import (
	"errors"
	"math/big"
)

// Config Guard 参数, 在 New 时校验并复制, 之后只读
// 时间相关字段的单位由调用方的 Clock 决定 (区块数或秒)
type Config struct {
	ExecutionDelay  uint64
	VetoThreshold   *big.Int
	FreezeThreshold *big.Int
	FreezeWindow    uint64
	// VotingWindow 为 0 时不限制投票时间
	VotingWindow uint64
}

func (c Config) Validate() error {
	if c.VetoThreshold == nil || c.VetoThreshold.Sign() < 0 {
		return errors.New("guard: veto threshold must be a non-negative integer")
	}
	if c.FreezeThreshold == nil || c.FreezeThreshold.Sign() < 0 {
		return errors.New("guard: freeze threshold must be a non-negative integer")
	}
	if c.FreezeWindow == 0 {
		return errors.New("guard: freeze window must be positive")
	}
	return nil
}

func (c Config) clone() Config {
	c.VetoThreshold = copyBig(c.VetoThreshold)
	c.FreezeThreshold = copyBig(c.FreezeThreshold)
	return c
}
