package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 按错误码比较, 使 WithMessage 派生出的错误仍能被 errors.Is 识别
func (e Errno) Is(target error) bool {
	var t Errno
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithMessage 返回替换了提示信息的副本, 错误码不变
func (e Errno) WithMessage(msg string) Errno {
	return Errno{Code: e.Code, Message: msg}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
	ErrUpstream         = Errno{Code: 10005, Message: "Upstream chain RPC error"}
)

// Guard Errors (30000+)
// Message 是对外稳定的 reason string, 下游工具据此区分 "稍后重试" 与 "永远不会通过"
var (
	ErrInvalidApprovalProof = Errno{Code: 30001, Message: "Invalid signatures"}
	ErrNotQueued            = Errno{Code: 30002, Message: "Transaction is not in the queued state"}
	ErrAlreadyVoted         = Errno{Code: 30003, Message: "User has already voted"}
	ErrDelayNotElapsed      = Errno{Code: 30004, Message: "Transaction delay period has not completed yet"}
	ErrVetoed               = Errno{Code: 30005, Message: "Transaction has been vetoed"}
	ErrSystemFrozen         = Errno{Code: 30006, Message: "DAO is frozen"}
	ErrVotingClosed         = Errno{Code: 30007, Message: "Voting period has ended"}
	ErrInvalidVoteSignature = Errno{Code: 30008, Message: "Invalid vote signature"}
	ErrNoVotingPower        = Errno{Code: 30009, Message: "User has no votes"}
)

// ErrNotYetQueued 投票时的未入队错误, 与 ErrNotQueued 同码不同提示
var ErrNotYetQueued = ErrNotQueued.WithMessage("Transaction has not yet been queued")

// Retryable 报告该错误是否会随时间推移自行消失 (DelayNotElapsed / SystemFrozen)
func Retryable(err error) bool {
	return errors.Is(err, ErrDelayNotElapsed) || errors.Is(err, ErrSystemFrozen)
}
