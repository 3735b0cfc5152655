package engine

import "errors"

// 引擎错误分类
// 均为单事件级错误：批量摄入时只影响当前事件，不中断批次
var (
	// ErrInvalidUnit 未识别的单位标签
	ErrInvalidUnit = errors.New("invalid unit")
	// ErrDuplicateEvent 自然键冲突（同一事件重复提交）
	ErrDuplicateEvent = errors.New("duplicate event")
	// ErrMissingRequiredField 必填字段缺失（如单价与总价均未提供）
	ErrMissingRequiredField = errors.New("missing required field")
)
