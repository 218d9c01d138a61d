package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrSlotUnavailable 所有 SlotUnavailableError 均匹配该哨兵错误
var ErrSlotUnavailable = errors.New("所选时段已不可用")

// 时段不可用原因
const (
	ReasonSlotNotFound = "not_found"
	ReasonSlotFull     = "full"
)

// SlotUnavailable 单个不可用时段
type SlotUnavailable struct {
	SlotID string `json:"slot_id"`
	Reason string `json:"reason"`
}

// SlotUnavailableError 应用 / 保存时引用的时段已被删除或已满
// 整个操作中止，Slots 列出所有出问题的时段
type SlotUnavailableError struct {
	Slots []SlotUnavailable
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("%s: %d 个时段已被删除或已满", ErrSlotUnavailable.Error(), len(e.Slots))
}

// Is 使 errors.Is(err, ErrSlotUnavailable) 成立
func (e *SlotUnavailableError) Is(target error) bool {
	return target == ErrSlotUnavailable
}
