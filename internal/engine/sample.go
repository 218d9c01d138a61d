package engine

import (
	"math/rand"
	"slices"
)

// Sample 基于显式种子的随机方案抽样
//
// 每次抽样用 rng 打乱各课程的候选顺序（课程顺序不变），取第一个完整方案；
// 按签名去重，直到凑满 limit 个或用尽 SampleAttempts 次尝试。
// 所有抽样共享同一节点预算。相同 (输入, seed, limit) 必然得到相同输出。
func (e *Engine) Sample(p Problem, seed int64, limit int) Page {
	if limit <= 0 {
		return Page{Results: []Ranked{}}
	}
	page := e.sample(p.Courses, p.Preferences, seed, limit)
	if page.Found == 0 && !page.Truncated && p.Preferences.relaxable() {
		if relaxed := e.sample(p.Courses, p.Preferences.relaxed(), seed, limit); relaxed.Found > 0 {
			relaxed.Relaxed = true
			page = relaxed
		}
	}
	return page
}

func (e *Engine) sample(courses []Course, prefs Preferences, seed int64, limit int) Page {
	pool := prepare(courses, prefs)
	rng := rand.New(rand.NewSource(seed))

	budget := e.limits.NodeBudget
	seen := make(map[string]struct{}, limit)
	results := make([]Ranked, 0, limit)
	page := Page{}

	for attempt := 0; attempt < e.limits.SampleAttempts && len(results) < limit; attempt++ {
		shuffled := shuffleCandidates(pool, rng)

		var found Assignment
		w := newWalker(shuffled, budget)
		truncated := w.walk(func(picks []int) bool {
			found = assemble(shuffled, picks)
			return false
		})
		budget -= w.visited
		if truncated || budget <= 0 {
			page.Truncated = true
		}
		if found == nil {
			// 完整遍历无解（任何顺序都不会有解），或预算已耗尽
			break
		}

		page.Found++
		sig := found.Signature()
		if _, dup := seen[sig]; !dup {
			seen[sig] = struct{}{}
			results = append(results, Ranked{
				Assignment: found,
				Score:      ScoreAssignment(found, prefs),
				Seq:        len(results),
			})
		}
		if page.Truncated {
			break
		}
	}

	slices.SortFunc(results, compareRanked)
	page.Results = results
	return page
}

func shuffleCandidates(pool []Course, rng *rand.Rand) []Course {
	out := make([]Course, len(pool))
	for i, c := range pool {
		c.Candidates = slices.Clone(c.Candidates)
		rng.Shuffle(len(c.Candidates), func(a, b int) {
			c.Candidates[a], c.Candidates[b] = c.Candidates[b], c.Candidates[a]
		})
		out[i] = c
	}
	return out
}
