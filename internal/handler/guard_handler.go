package handler

import (
	"context"
	"errors"

	"guard-core/internal/guard"
	"guard-core/internal/handler/request"
	"guard-core/internal/handler/response"
	"guard-core/internal/service"
	"guard-core/pkg/errno"
	"guard-core/pkg/validator"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// GuardService 由 service.GuardService 实现
type GuardService interface {
	Info() service.GuardInfo
	Fingerprint(tx guard.Transaction) common.Hash
	Queue(ctx context.Context, tx guard.Transaction, signatures []byte, submitter common.Address) (guard.QueueEntry, error)
	Status(ctx context.Context, fp common.Hash) (service.TransactionStatus, error)
	Vote(ctx context.Context, fp common.Hash, voter common.Address, freeze bool, signature []byte) (guard.VoteReceipt, error)
	Check(ctx context.Context, fp common.Hash) error
	Executed(ctx context.Context, fp common.Hash, success bool) error
	FreezeStatus(ctx context.Context) (guard.FreezeStatus, error)
}

type GuardHandler struct {
	svc GuardService
}

func NewGuardHandler(svc GuardService) *GuardHandler {
	return &GuardHandler{svc: svc}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return false
	}
	return true
}

func parseFingerprint(c *gin.Context) (common.Hash, bool) {
	raw := c.Param("fingerprint")
	b, err := request.DecodeHex(raw)
	if err != nil || len(b) != common.HashLength {
		response.Error(c, errno.ErrBind.WithMessage("fingerprint 必须是 0x 开头的 32 字节十六进制"))
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}

func bad(c *gin.Context, err error) {
	response.Error(c, errno.ErrBind.WithMessage(err.Error()))
}

// Fingerprint 计算交易指纹
// @Summary 计算交易指纹
// @Tags transactions
// @Accept json
// @Produce json
// @Param body body request.TransactionRequest true "Safe 交易参数"
// @Success 200 {object} response.Response{data=FingerprintView}
// @Router /transactions/fingerprint [post]
func (h *GuardHandler) Fingerprint(c *gin.Context) {
	var req request.TransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := req.ToTransaction()
	if err != nil {
		bad(c, err)
		return
	}
	response.Success(c, FingerprintView{Fingerprint: h.svc.Fingerprint(tx).Hex()})
}

// Queue 提交 Safe 多签并入队
// submitter 只是调用方自报的地址, 原样记录并写入 transaction_queued 事件, 不参与任何鉴权.
// 入队的授权来自 Safe 多签本身.
// @Summary 提交 Safe 多签并入队
// @Tags transactions
// @Accept json
// @Produce json
// @Param body body request.QueueTransactionRequest true "交易与多签"
// @Success 200 {object} response.Response{data=QueueEntryView}
// @Router /transactions/queue [post]
func (h *GuardHandler) Queue(c *gin.Context) {
	// 1. 绑定参数
	var req request.QueueTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := req.Transaction.ToTransaction()
	if err != nil {
		bad(c, err)
		return
	}
	sigs, err := request.DecodeHex(req.Signatures)
	if err != nil {
		bad(c, errors.New("signatures 不是合法的十六进制"))
		return
	}

	// 2. 调用 Service
	entry, err := h.svc.Queue(c.Request.Context(), tx, sigs, common.HexToAddress(req.Submitter))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, QueueEntryView{
		Fingerprint: entry.Fingerprint.Hex(),
		QueuedAt:    entry.QueuedAt,
		Submitter:   entry.Submitter.Hex(),
	})
}

// Status 查询交易状态
// @Summary 查询交易状态
// @Tags transactions
// @Produce json
// @Param fingerprint path string true "交易指纹"
// @Success 200 {object} response.Response{data=TransactionStatusView}
// @Router /transactions/{fingerprint} [get]
func (h *GuardHandler) Status(c *gin.Context) {
	fp, ok := parseFingerprint(c)
	if !ok {
		return
	}
	status, err := h.svc.Status(c.Request.Context(), fp)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newStatusView(status))
}

// Vote 投否决票 (可同时投冻结票)
// @Summary 投否决票
// @Tags transactions
// @Accept json
// @Produce json
// @Param fingerprint path string true "交易指纹"
// @Param body body request.CastVoteRequest true "投票与签名"
// @Success 200 {object} response.Response{data=VoteReceiptView}
// @Router /transactions/{fingerprint}/votes [post]
func (h *GuardHandler) Vote(c *gin.Context) {
	fp, ok := parseFingerprint(c)
	if !ok {
		return
	}
	var req request.CastVoteRequest
	if !bindJSON(c, &req) {
		return
	}
	sig, err := request.DecodeHex(req.Signature)
	if err != nil {
		response.Error(c, errno.ErrInvalidVoteSignature)
		return
	}

	receipt, err := h.svc.Vote(c.Request.Context(), fp, common.HexToAddress(req.Voter), req.Freeze, sig)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newReceiptView(receipt))
}

// Check 执行前检查, 无副作用
// @Summary 执行前检查
// @Tags guard
// @Accept json
// @Produce json
// @Param body body request.CheckTransactionRequest true "交易指纹"
// @Success 200 {object} response.Response{data=CheckView}
// @Router /guard/check [post]
func (h *GuardHandler) Check(c *gin.Context) {
	var req request.CheckTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Check(c.Request.Context(), common.HexToHash(req.Fingerprint)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, CheckView{Allowed: true})
}

// Executed 执行后钩子
// @Summary 执行后钩子
// @Tags guard
// @Accept json
// @Produce json
// @Param body body request.ExecutedRequest true "执行结果"
// @Success 200 {object} response.Response
// @Router /guard/executed [post]
func (h *GuardHandler) Executed(c *gin.Context) {
	var req request.ExecutedRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Executed(c.Request.Context(), common.HexToHash(req.Fingerprint), req.Success); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Freeze 全局冻结状态
// @Summary 全局冻结状态
// @Tags guard
// @Produce json
// @Success 200 {object} response.Response{data=FreezeStatusView}
// @Router /guard/freeze [get]
func (h *GuardHandler) Freeze(c *gin.Context) {
	status, err := h.svc.FreezeStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newFreezeView(status))
}

// Config Guard 参数
// @Summary Guard 参数
// @Tags guard
// @Produce json
// @Success 200 {object} response.Response{data=GuardConfigView}
// @Router /guard/config [get]
func (h *GuardHandler) Config(c *gin.Context) {
	response.Success(c, newConfigView(h.svc.Info()))
}
