package engine

import (
	"slices"

	"timetable-planner/backend/internal/timegrid"
)

// ════════════════════════════════════════════════════════════
// Similar：参考方案的"一次只换一门课"邻居
// ════════════════════════════════════════════════════════════
//
// 依次固定其余课程的选择，替换第 i 门课为它的其他候选；
// 保留无冲突的替换，按签名对本次已返回、调用方已见过以及参考方案本身去重。

// Similar 返回最多 limit 个与参考方案只差一门课的方案
// reference 必须与 p.Courses 一一对应（参考 slot 不要求仍在候选池中）
func (e *Engine) Similar(p Problem, reference Assignment, seen []string, limit int) (SimilarResult, error) {
	if len(reference) != len(p.Courses) {
		return SimilarResult{}, ErrReferenceMismatch
	}
	for i, c := range p.Courses {
		if reference[i].SlotID == "" || (reference[i].CourseID != "" && reference[i].CourseID != c.CourseID) {
			return SimilarResult{}, ErrReferenceMismatch
		}
	}
	if limit <= 0 {
		return SimilarResult{Results: []Ranked{}}, nil
	}

	res := e.similar(p.Courses, p.Preferences, reference, seen, limit)
	if len(res.Results) == 0 && p.Preferences.relaxable() {
		if relaxed := e.similar(p.Courses, p.Preferences.relaxed(), reference, seen, limit); len(relaxed.Results) > 0 {
			relaxed.Relaxed = true
			res = relaxed
		}
	}
	return res, nil
}

func (e *Engine) similar(courses []Course, prefs Preferences, reference Assignment, seen []string, limit int) SimilarResult {
	pool := prepare(courses, prefs)

	ref := make(Assignment, len(reference))
	for i, c := range reference {
		c.CourseID = courses[i].CourseID
		ref[i] = c
	}

	skip := make(map[string]struct{}, len(seen)+limit+1)
	for _, sig := range seen {
		skip[sig] = struct{}{}
	}
	skip[ref.Signature()] = struct{}{}

	results := make([]Ranked, 0, limit)
collect:
	for i := range pool {
		others, ok := unionExcept(ref, i)
		if !ok {
			// 除第 i 门外的课程本身已冲突，替换第 i 门无法修复
			continue
		}
		for _, cand := range pool[i].Candidates {
			if cand.SlotID == ref[i].SlotID || others.Intersects(cand.Cells) {
				continue
			}
			a := slices.Clone(ref)
			a[i] = cand
			sig := a.Signature()
			if _, dup := skip[sig]; dup {
				continue
			}
			skip[sig] = struct{}{}
			results = append(results, Ranked{
				Assignment: a,
				Score:      ScoreAssignment(a, prefs),
				Seq:        len(results),
			})
			if len(results) == limit {
				break collect
			}
		}
	}

	slices.SortFunc(results, compareRanked)
	return SimilarResult{Results: results}
}

// unionExcept 计算除第 skip 项外所有候选的占用并集；若它们之间已有冲突返回 false
func unionExcept(a Assignment, skip int) (timegrid.CellSet, bool) {
	var u timegrid.CellSet
	for i, c := range a {
		if i == skip {
			continue
		}
		if u.Intersects(c.Cells) {
			return 0, false
		}
		u |= c.Cells
	}
	return u, true
}
