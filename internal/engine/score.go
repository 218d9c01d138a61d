package engine

import (
	"cmp"
	"strings"

	"timetable-planner/backend/internal/timegrid"
)

// ════════════════════════════════════════════════════════════
// Scorer：方案评分
// ════════════════════════════════════════════════════════════
//
// 按课程逐项累加：
//   - 教师偏好：第 1/2/3 志愿分别 +50/+30/+15，只取最优一档
//   - avoid_early_morning：第 1 节每格 -10
//   - avoid_late_evening：第 6、7 节每格 -10
//   - 周六每格 -5（不受开关影响）

var rankBonus = [...]int{50, 30, 15}

const (
	earlyMorningPenalty = 10
	lateEveningPenalty  = 10
	saturdayPenalty     = 5
)

// ScoreAssignment 计算方案得分
func ScoreAssignment(a Assignment, prefs Preferences) Score {
	var s Score
	for _, c := range a {
		if bonus := facultyBonus(prefs.FacultyRank[c.CourseID], c.Faculty); bonus > 0 {
			s.Total += bonus
			s.FacultyMatches++
		}
		if prefs.AvoidEarlyMorning {
			s.Total -= earlyMorningPenalty * c.Cells.CountInPeriods(1)
		}
		if prefs.AvoidLateEvening {
			s.Total -= lateEveningPenalty * c.Cells.CountInPeriods(6, 7)
		}
		sat := c.Cells.CountOnDay(timegrid.Saturday)
		s.SaturdayCells += sat
		s.Total -= saturdayPenalty * sat
	}
	return s
}

func facultyBonus(ranked []string, faculty string) int {
	f := normalizeName(faculty)
	if f == "" {
		return 0
	}
	for i, name := range ranked {
		if i >= len(rankBonus) {
			break
		}
		if normalizeName(name) == f {
			return rankBonus[i]
		}
	}
	return 0
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// compareRanked 排序：得分降序 → 教师匹配数降序 → 周六格数升序 → 枚举序号升序
func compareRanked(a, b Ranked) int {
	if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Score.FacultyMatches, a.Score.FacultyMatches); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Score.SaturdayCells, b.Score.SaturdayCells); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}
