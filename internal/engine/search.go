package engine

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"timetable-planner/backend/internal/timegrid"
)

// ── Engine ──────────────────────────────────────────────────
//
// 设计说明：
//   - Engine 无状态，所有输入在调用时传入，可被多个请求并发使用
//   - 回溯使用显式栈（每层一个游标 + 每层累计占用），深度不超过课程数
//   - 节点预算是唯一的"取消"机制：耗尽后返回已找到的结果并标记 Truncated
//   - 分页通过重跑同一确定性搜索再切片实现，请求之间不共享任何搜索状态
// ─────────────────────────────────────────────────────────────

// Engine 组合搜索引擎
type Engine struct {
	limits Limits
}

// New 创建引擎，未设置的上限使用默认值
func New(limits Limits) *Engine {
	return &Engine{limits: limits.withDefaults()}
}

// Limits 返回生效的上限
func (e *Engine) Limits() Limits {
	return e.limits
}

// prepare 复制课程列表，应用硬过滤并按 slot id 排序候选
// 不修改调用方传入的数据
func prepare(courses []Course, prefs Preferences) []Course {
	var blocked timegrid.CellSet
	for _, code := range prefs.ExcludeSlots {
		blocked |= timegrid.Decode(code).Cells
	}
	if prefs.TimeMode == TimeModeStrict {
		blocked |= prefs.disallowedCells()
	}
	avoid := lo.Map(prefs.AvoidFaculties, func(s string, _ int) string { return normalizeName(s) })

	out := make([]Course, len(courses))
	for i, course := range courses {
		cands := lo.Filter(course.Candidates, func(c Candidate, _ int) bool {
			if c.Cells.Intersects(blocked) {
				return false
			}
			f := normalizeName(c.Faculty)
			return f == "" || !lo.Contains(avoid, f)
		})
		cands = lo.Map(cands, func(c Candidate, _ int) Candidate {
			c.CourseID = course.CourseID
			return c
		})
		slices.SortStableFunc(cands, func(a, b Candidate) int {
			return strings.Compare(a.SlotID, b.SlotID)
		})
		course.Candidates = cands
		out[i] = course
	}
	return out
}

// ── 显式栈回溯 ──

type walker struct {
	courses []Course
	budget  int
	visited int
}

func newWalker(courses []Course, budget int) *walker {
	return &walker{courses: courses, budget: budget}
}

// walk 按确定性顺序深度优先遍历所有无冲突的完整分配
// visit 收到每层选中的候选下标，返回 false 时停止遍历
// 返回 true 表示因节点预算耗尽而中止
func (w *walker) walk(visit func(picks []int) bool) (truncated bool) {
	n := len(w.courses)
	if n == 0 {
		return false
	}
	for _, c := range w.courses {
		if len(c.Candidates) == 0 {
			return false
		}
	}

	picks := make([]int, n)
	for i := range picks {
		picks[i] = -1
	}
	// occ[d] 为第 0..d-1 层已选候选的占用并集
	occ := make([]timegrid.CellSet, n+1)

	depth := 0
	for depth >= 0 {
		picks[depth]++
		cands := w.courses[depth].Candidates
		if picks[depth] >= len(cands) {
			// 本层候选耗尽，回退到上一层
			picks[depth] = -1
			depth--
			continue
		}

		w.visited++
		if w.budget > 0 && w.visited > w.budget {
			return true
		}

		cells := cands[picks[depth]].Cells
		if occ[depth].Intersects(cells) {
			continue
		}
		occ[depth+1] = occ[depth] | cells

		if depth == n-1 {
			if !visit(picks) {
				return false
			}
			continue
		}
		depth++
	}
	return false
}

func assemble(courses []Course, picks []int) Assignment {
	a := make(Assignment, len(courses))
	for i, p := range picks {
		a[i] = courses[i].Candidates[p]
	}
	return a
}

// ════════════════════════════════════════════════════════════
// Enumerate：枚举并分页
// ════════════════════════════════════════════════════════════
//
// 收集量向上取整到整数个排序窗口（再多取 1 个用于判断 has_more），
// 每个窗口内独立排序后切片 [offset, offset+limit)。
// 窗口只依赖其之前的枚举结果，因此任意 (offset, limit) 组合都与一次大切片一致。

// Enumerate 按得分返回 [offset, offset+limit) 的方案
func (e *Engine) Enumerate(p Problem, offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return Page{Results: []Ranked{}}
	}

	page := e.enumerate(p.Courses, p.Preferences, offset, limit)
	if page.Found == 0 && !page.Truncated && p.Preferences.relaxable() {
		// 降级后仍无结果说明瓶颈在不可降级的过滤条件上
		if relaxed := e.enumerate(p.Courses, p.Preferences.relaxed(), offset, limit); relaxed.Found > 0 {
			relaxed.Relaxed = true
			page = relaxed
		}
	}
	return page
}

func (e *Engine) enumerate(courses []Course, prefs Preferences, offset, limit int) Page {
	pool := prepare(courses, prefs)
	window := e.limits.RankWindow
	need := offset + limit
	target := ((need + window - 1) / window) * window

	collected := make([]Ranked, 0, min(target+1, 4*window))
	w := newWalker(pool, e.limits.NodeBudget)
	truncated := w.walk(func(picks []int) bool {
		a := assemble(pool, picks)
		collected = append(collected, Ranked{
			Assignment: a,
			Score:      ScoreAssignment(a, prefs),
			Seq:        len(collected),
		})
		return len(collected) <= target
	})

	ranked := collected[:min(len(collected), target)]
	rankWindows(ranked, window)

	page := Page{
		Found:     len(collected),
		HasMore:   len(collected) > need || (truncated && len(collected) >= need),
		Truncated: truncated,
		Results:   []Ranked{},
	}
	if offset < len(ranked) {
		page.Results = slices.Clone(ranked[offset:min(need, len(ranked))])
	}
	return page
}

// rankWindows 将结果按固定窗口切块，块内排序
func rankWindows(rs []Ranked, window int) {
	for start := 0; start < len(rs); start += window {
		slices.SortFunc(rs[start:min(start+window, len(rs))], compareRanked)
	}
}
