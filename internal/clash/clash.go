package clash

import (
	"timetable-planner/backend/internal/timegrid"
)

// ── 冲突检测 ──────────────────────────────────────────────
//
// 设计说明：
//   - 所有函数均为纯函数，只读入参，不返回 error
//   - 未知 token 在解析阶段已被视为不占格，这里天然得到"不冲突"的保守结论，
//     告警由调用方（service 层）负责记录
//   - 编辑中的登记通过 excludeRegistrationID 显式传入，不依赖任何全局状态
// ─────────────────────────────────────────────────────────────

// Held 用户已持有的一条登记（冲突检测基线）
type Held struct {
	RegistrationID string
	SlotID         string
	CourseCode     string
	SlotCode       string
	Cells          timegrid.CellSet
}

// Candidate 待检测的候选 slot
type Candidate struct {
	SlotID string
	Cells  timegrid.CellSet
}

// Conflict 与候选冲突的已有登记
type Conflict struct {
	RegistrationID string `json:"registration_id"`
	CourseCode     string `json:"course_code"`
	SlotCode       string `json:"slot_code"`
}

// Result 单个候选的检测结果
type Result struct {
	HasClash  bool       `json:"has_clash"`
	Conflicts []Conflict `json:"clashing"`
}

// Clashes 两个占用集合是否存在公共格子
func Clashes(a, b timegrid.CellSet) bool {
	return a.Intersects(b)
}

// CheckSingle 检测单个候选与已有登记的冲突
func CheckSingle(candidate timegrid.CellSet, held []Held) Result {
	return check(candidate, held, "")
}

// CheckBatch 以同一基线批量检测多个候选
// excludeRegistrationID 非空时，该登记的格子不计入基线（编辑该登记时使用）
func CheckBatch(candidates []Candidate, held []Held, excludeRegistrationID string) map[string]Result {
	out := make(map[string]Result, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	var baseline timegrid.CellSet
	for _, h := range held {
		if h.RegistrationID == excludeRegistrationID && excludeRegistrationID != "" {
			continue
		}
		baseline |= h.Cells
	}

	for _, c := range candidates {
		// 快速路径：与整个基线都不相交时无需逐条比对
		if !Clashes(c.Cells, baseline) {
			out[c.SlotID] = Result{Conflicts: []Conflict{}}
			continue
		}
		out[c.SlotID] = check(c.Cells, held, excludeRegistrationID)
	}
	return out
}

func check(candidate timegrid.CellSet, held []Held, excludeRegistrationID string) Result {
	res := Result{Conflicts: []Conflict{}}
	for _, h := range held {
		if excludeRegistrationID != "" && h.RegistrationID == excludeRegistrationID {
			continue
		}
		if Clashes(candidate, h.Cells) {
			res.Conflicts = append(res.Conflicts, Conflict{
				RegistrationID: h.RegistrationID,
				CourseCode:     h.CourseCode,
				SlotCode:       h.SlotCode,
			})
		}
	}
	res.HasClash = len(res.Conflicts) > 0
	return res
}
