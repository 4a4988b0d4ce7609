// Package errs 统一错误类型
//
// 所有子系统（graph、flooding、config、adapter、tuning ...）在边界处返回 *errs.Error，
// 调用方通过 Is* 判断错误种类，而不需要依赖具体驱动或实现包。
//
//	return errs.Wrap(errs.ErrKindQueryFailed, "failed to fetch columns", err)
//
//	if errs.IsInvalidInput(err) {
//	    http.Error(w, err.Error(), http.StatusBadRequest)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind 错误种类
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // 表、列、任务、文件不存在
	ErrKindConnectionFailed         // 无法连接数据库或调参服务
	ErrKindTimeout                  // 超时或取消
	ErrKindQueryFailed              // SQL 或 I/O 操作失败
	ErrKindInvalidInput             // 参数非法（系数越界、未知策略、未知参数值）
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error 统一错误
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // 原始错误，保留用于日志
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap 支持 errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// New 创建无原因的错误
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf 创建格式化消息的错误
func Newf(kind ErrKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsNotFound 是否为不存在错误
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout 是否为超时错误
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed 是否为连接错误
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed 是否为查询/IO 错误
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput 是否为参数错误
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// KindOf 取错误链中的错误种类
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
