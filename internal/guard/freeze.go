package guard

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FreezePhase 冻结累加器所处阶段
type FreezePhase uint8

const (
	FreezeIdle FreezePhase = iota
	FreezeAccumulating
)

func (p FreezePhase) String() string {
	if p == FreezeAccumulating {
		return "accumulating"
	}
	return "idle"
}

// FreezeState 全局冻结记录
//
//	Idle                          无进行中的冻结窗口
//	Accumulating{start, weight}   窗口自 WindowStart 起累计的冻结权重
//
// FrozenAt 与窗口独立保存: 窗口过期后新窗口开始累计时, 上一次冻结仍按 FrozenAt 计时
type FreezeState struct {
	Phase       FreezePhase
	WindowStart uint64
	Weight      *big.Int
	HasFrozen   bool
	FrozenAt    uint64
}

func (s FreezeState) clone() FreezeState {
	s.Weight = copyBig(s.Weight)
	return s
}

// Current 返回 now 时刻的有效状态, 窗口已过期 (now - start > window) 时视为 Idle
func (s FreezeState) Current(now, window uint64) FreezeState {
	s = s.clone()
	if s.Phase == FreezeAccumulating && now > s.WindowStart && now-s.WindowStart > window {
		s.Phase = FreezeIdle
		s.WindowStart = 0
		s.Weight = new(big.Int)
	}
	return s
}

// Frozen 最近一次越过阈值的时刻距 now 不超过 window
// now 早于 FrozenAt (调用方时钟落后) 时按已冻结处理
func (s FreezeState) Frozen(now, window uint64) bool {
	if !s.HasFrozen {
		return false
	}
	if now < s.FrozenAt {
		return true
	}
	return now-s.FrozenAt <= window
}

// Apply 计入一张冻结票, 调用方需先用 Current 处理过期
// opened: 本票开启了新窗口; crossed: 本票使累计权重首次越过阈值
func (s FreezeState) Apply(weight *big.Int, now uint64, threshold *big.Int) (next FreezeState, opened, crossed bool) {
	next = s.clone()
	prev := new(big.Int)

	if next.Phase == FreezeIdle {
		next.Phase = FreezeAccumulating
		next.WindowStart = now
		next.Weight = copyBig(weight)
		opened = true
	} else {
		prev.Set(next.Weight)
		next.Weight.Add(next.Weight, weight)
	}

	crossed = prev.Cmp(threshold) <= 0 && next.Weight.Cmp(threshold) > 0
	if crossed {
		next.HasFrozen = true
		next.FrozenAt = now
	}
	return next, opened, crossed
}

// FreezeTally 全局冻结计票
type FreezeTally struct {
	threshold *big.Int
	window    uint64
}

type freezeResult struct {
	counted bool
	weight  *big.Int
	frozen  bool
}

// cast 在事务内计入 voter 的冻结票; 同一窗口内已投过的 voter 不重复计入
func (f *FreezeTally) cast(tx StoreTx, fp common.Hash, voter common.Address, weight *big.Int, now uint64) (freezeResult, error) {
	stored, err := tx.GetFreezeState()
	if err != nil {
		return freezeResult{}, err
	}
	cur := stored.Current(now, f.window)

	if cur.Phase == FreezeAccumulating {
		voted, err := tx.HasFreezeVoted(cur.WindowStart, voter)
		if err != nil {
			return freezeResult{}, err
		}
		if voted {
			return freezeResult{weight: cur.Weight, frozen: cur.Frozen(now, f.window)}, nil
		}
	}

	next, opened, crossed := cur.Apply(weight, now, f.threshold)
	if err := tx.PutFreezeState(next); err != nil {
		return freezeResult{}, err
	}
	if err := tx.AddFreezeVote(next.WindowStart, voter, weight); err != nil {
		return freezeResult{}, err
	}

	if opened {
		if err := tx.Emit(Event{Kind: EventFreezeWindowOpened, Fingerprint: fp, Account: voter, Weight: weight.String(), Freeze: true, At: now}); err != nil {
			return freezeResult{}, err
		}
	}
	if crossed {
		if err := tx.Emit(Event{Kind: EventSystemFrozen, Fingerprint: fp, Account: voter, Weight: next.Weight.String(), Freeze: true, At: now}); err != nil {
			return freezeResult{}, err
		}
	}

	return freezeResult{counted: true, weight: next.Weight, frozen: next.Frozen(now, f.window)}, nil
}

func (f *FreezeTally) status(tx StoreTx, now uint64) (FreezeStatus, error) {
	stored, err := tx.GetFreezeState()
	if err != nil {
		return FreezeStatus{}, err
	}
	cur := stored.Current(now, f.window)
	return FreezeStatus{
		Accumulating: cur.Phase == FreezeAccumulating,
		WindowStart:  cur.WindowStart,
		Weight:       cur.Weight,
		Frozen:       cur.Frozen(now, f.window),
		FrozenAt:     cur.FrozenAt,
	}, nil
}
