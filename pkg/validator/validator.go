package validator

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	hex32Pattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	hexBytesPattern = regexp.MustCompile(`^0x([0-9a-fA-F]{2})*$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]{1,78}$`)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

type rule struct {
	check func(s string) bool
	msg   string // %s 为字段名
}

// 自定义规则, 均作用于 string 字段
var rules = map[string]rule{
	"eth_addr": {common.IsHexAddress, "%s 不是合法的以太坊地址"},
	"hex32":    {hex32Pattern.MatchString, "%s 必须是 0x 开头的 32 字节十六进制"},
	"hexbytes": {hexBytesPattern.MatchString, "%s 必须是 0x 开头的十六进制字节串"},
	"uint256":  {IsUint256, "%s 必须是 0 到 2^256-1 之间的十进制整数"},
}

// IsUint256 十进制无符号整数且不超过 2^256-1
func IsUint256(s string) bool {
	if !digitsPattern.MatchString(s) {
		return false
	}
	v, ok := new(big.Int).SetString(s, 10)
	return ok && v.Cmp(maxUint256) <= 0
}

// Init 向 gin 默认的 go-playground 校验器注册自定义规则
func Init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	for tag, r := range rules {
		check := r.check
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		})
	}
}

// GetErrorMsg 将校验错误转换为可读信息
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "请求参数错误"
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		if r, ok := rules[e.Tag()]; ok {
			msgs = append(msgs, fmt.Sprintf(r.msg, field))
			continue
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s 不能为空", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s 校验失败 (%s)", field, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
