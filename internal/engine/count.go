package engine

import "strings"

// Count 统计无冲突完整方案数量，达到上限后停止
//
// Capped 仅在确实存在超过上限的方案时置位，此时 Count 恰好等于上限。
// distinct 以 slot id 为唯一性依据：同一组格子但教师不同的方案计为不同方案。
func (e *Engine) Count(p Problem, mode CountMode) CountResult {
	res := e.count(p.Courses, p.Preferences, mode)
	if res.Count == 0 && !res.Truncated && p.Preferences.relaxable() {
		if relaxed := e.count(p.Courses, p.Preferences.relaxed(), mode); relaxed.Count > 0 {
			relaxed.Relaxed = true
			res = relaxed
		}
	}
	return res
}

func (e *Engine) count(courses []Course, prefs Preferences, mode CountMode) CountResult {
	pool := prepare(courses, prefs)
	limit := e.limits.CountCap

	var res CountResult
	var seen map[string]struct{}
	if mode == CountDistinct || mode == CountPattern {
		seen = make(map[string]struct{}, limit)
	}

	w := newWalker(pool, e.limits.NodeBudget)
	res.Truncated = w.walk(func(picks []int) bool {
		if seen != nil {
			key := countKey(pool, picks, mode)
			if _, dup := seen[key]; dup {
				return true
			}
			seen[key] = struct{}{}
		}
		if res.Count == limit {
			res.Capped = true
			return false
		}
		res.Count++
		return true
	})
	return res
}

func countKey(pool []Course, picks []int, mode CountMode) string {
	a := assemble(pool, picks)
	if mode == CountPattern {
		codes := make([]string, len(a))
		for i, c := range a {
			codes[i] = strings.ToUpper(strings.TrimSpace(c.SlotCode))
		}
		return strings.Join(codes, "|")
	}
	return a.Signature()
}
