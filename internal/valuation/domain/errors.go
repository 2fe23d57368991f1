package domain

import (
	"errors"

	"github.com/wyfcoding/pkg/xerrors"
)

// 业务错误码。400xx 为输入问题，502xx 为数值方法问题。
const (
	CodeInvalidParameter = 40001
	CodeConvergence      = 50201
	CodeWorkerFailure    = 50202
)

// ErrCancelled 表示计算被协作式取消。不会作为失败结果对外暴露。
var ErrCancelled = errors.New("computation cancelled")

// InvalidParameter 构造参数非法错误。调用方必须修正输入，不做重试。
func InvalidParameter(msg string) *xerrors.Error {
	return xerrors.New(xerrors.ErrInvalidArg, CodeInvalidParameter, msg, "", nil)
}

// Convergence 构造数值迭代超出预算错误。调用方可放宽容差后重试。
func Convergence(msg string) *xerrors.Error {
	return xerrors.New(xerrors.ErrInternal, CodeConvergence, msg, "", nil)
}

// WorkerFailure 包装 worker 执行期间的意外异常。
func WorkerFailure(cause error) *xerrors.Error {
	return xerrors.New(xerrors.ErrInternal, CodeWorkerFailure, "worker execution failed", "", cause)
}

// IsInvalidParameter 判断是否为参数非法错误。
func IsInvalidParameter(err error) bool {
	return hasCode(err, CodeInvalidParameter)
}

// IsConvergence 判断是否为收敛失败错误。
func IsConvergence(err error) bool {
	return hasCode(err, CodeConvergence)
}

func hasCode(err error, code int) bool {
	var e *xerrors.Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
