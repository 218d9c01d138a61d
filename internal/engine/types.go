package engine

import (
	"errors"
	"sort"
	"strings"

	"timetable-planner/backend/internal/timegrid"
)

// ── 引擎输入 / 输出类型 ──

// ErrReferenceMismatch 参考方案与课程列表不一致
var ErrReferenceMismatch = errors.New("参考方案与课程列表不匹配")

// TimeMode 时间偏好的执行方式
type TimeMode string

const (
	TimeModeNone   TimeMode = "none"
	TimeModeStrict TimeMode = "strict" // 时间偏好作为硬过滤
	TimeModeSoft   TimeMode = "soft"   // 时间偏好仅影响评分
)

// Preferences 单次请求内不可变的偏好配置
type Preferences struct {
	AvoidEarlyMorning bool
	AvoidLateEvening  bool
	TimeMode          TimeMode
	// FacultyRank course_id → 最多 3 位按优先级排列的教师姓名
	FacultyRank map[string][]string
	// ExcludeSlots 用户屏蔽的时段 token，与之相交的候选被剔除
	ExcludeSlots []string
	// AvoidFaculties 不希望选择的教师
	AvoidFaculties []string
}

// disallowedCells strict 模式下不允许占用的格子
func (p Preferences) disallowedCells() timegrid.CellSet {
	var m timegrid.CellSet
	if p.AvoidEarlyMorning {
		m |= timegrid.PeriodMask(1)
	}
	if p.AvoidLateEvening {
		m |= timegrid.PeriodMask(6, 7)
	}
	return m
}

// relaxable strict 模式且确有时间限制时才存在可降级的约束
func (p Preferences) relaxable() bool {
	return p.TimeMode == TimeModeStrict && !p.disallowedCells().Empty()
}

// relaxed 将 strict 降级为 soft
func (p Preferences) relaxed() Preferences {
	p.TimeMode = TimeModeSoft
	return p
}

// Candidate 某门课程的一个可选 slot
type Candidate struct {
	SlotID   string
	CourseID string
	SlotCode string
	Faculty  string
	Venue    string
	Cells    timegrid.CellSet
}

// Course 参与搜索的课程及其候选 slot
type Course struct {
	CourseID   string
	Code       string
	Credits    int
	Candidates []Candidate
}

// Problem 一次生成请求的完整输入
type Problem struct {
	Courses     []Course
	Preferences Preferences
}

// Assignment 每门课程选中的 slot，与 Problem.Courses 一一对应
type Assignment []Candidate

// SlotIDs 按课程顺序返回 slot id
func (a Assignment) SlotIDs() []string {
	ids := make([]string, len(a))
	for i, c := range a {
		ids[i] = c.SlotID
	}
	return ids
}

// Signature 方案签名：排序后的 slot id 元组
func (a Assignment) Signature() string {
	return Signature(a.SlotIDs())
}

// Signature 计算 slot id 列表的签名（与顺序无关）
func Signature(slotIDs []string) string {
	ids := append([]string(nil), slotIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Score 评分结果
type Score struct {
	Total          int `json:"total"`
	FacultyMatches int `json:"faculty_matches"`
	SaturdayCells  int `json:"saturday_cells"`
}

// Ranked 带评分与枚举序号的方案
type Ranked struct {
	Assignment Assignment
	Score      Score
	// Seq 在确定性枚举顺序中的位置，作为最终平手裁决
	Seq int
}

// Page Enumerate / Sample 的返回
type Page struct {
	Results []Ranked
	// Found 本次搜索实际找到的完整方案数
	Found     int
	HasMore   bool
	Truncated bool
	Relaxed   bool
}

// SimilarResult Similar 的返回
type SimilarResult struct {
	Results []Ranked
	Relaxed bool
}

// CountMode 计数模式
type CountMode string

const (
	CountStandard CountMode = "standard"
	CountDistinct CountMode = "distinct" // 按 slot id 签名去重
	CountPattern  CountMode = "pattern"  // 按各课程 slot code 组合去重
)

// CountResult Count 的返回
type CountResult struct {
	Count     int
	Capped    bool
	Truncated bool
	Relaxed   bool
}

// Limits 引擎资源上限
type Limits struct {
	NodeBudget     int // 单次搜索允许访问的节点数
	CountCap       int // 计数上限
	RankWindow     int // 排序窗口大小
	SampleAttempts int // 随机抽样的最大尝试次数
}

// DefaultLimits 默认上限
func DefaultLimits() Limits {
	return Limits{
		NodeBudget:     200000,
		CountCap:       500,
		RankWindow:     100,
		SampleAttempts: 200,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.NodeBudget <= 0 {
		l.NodeBudget = d.NodeBudget
	}
	if l.CountCap <= 0 {
		l.CountCap = d.CountCap
	}
	if l.RankWindow <= 0 {
		l.RankWindow = d.RankWindow
	}
	if l.SampleAttempts <= 0 {
		l.SampleAttempts = d.SampleAttempts
	}
	return l
}
