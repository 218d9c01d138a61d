package timegrid

import (
	"fmt"
	"math/bits"
	"strings"
)

// ── 周课表网格 ──────────────────────────────────────────────
//
// 设计说明：
//   - 网格固定为 6 天（周一 ~ 周六）× 7 个教学节次
//   - 午休位于第 3 节与第 4 节之间，不是节次，任何 token 都不会映射到午休
//   - 每个格子编码为 uint64 的一位：bit = day*7 + (period-1)，共 42 位
// ─────────────────────────────────────────────────────────────

// Day 星期（0 = 周一）
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const (
	// Days 网格天数
	Days = 6
	// Periods 每天教学节次数
	Periods = 7
	// LunchAfterPeriod 午休紧跟在该节次之后
	LunchAfterPeriod = 3
)

var dayNames = [Days]string{"MON", "TUE", "WED", "THU", "FRI", "SAT"}

// String 返回星期缩写
func (d Day) String() string {
	if d < 0 || int(d) >= Days {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Cell 网格中的一个格子 (day, period)，period 从 1 开始
type Cell struct {
	Day    Day
	Period int
}

// Valid 判断格子是否落在网格内
func (c Cell) Valid() bool {
	return c.Day >= Monday && c.Day <= Saturday && c.Period >= 1 && c.Period <= Periods
}

func (c Cell) bit() uint {
	return uint(int(c.Day)*Periods + c.Period - 1)
}

func (c Cell) String() string {
	return fmt.Sprintf("%s-P%d", c.Day, c.Period)
}

// CellSet 格子集合（位图）
type CellSet uint64

// Of 由若干格子构造集合，网格外的格子被忽略
func Of(cells ...Cell) CellSet {
	var s CellSet
	for _, c := range cells {
		if c.Valid() {
			s |= 1 << c.bit()
		}
	}
	return s
}

// Has 是否包含格子
func (s CellSet) Has(c Cell) bool {
	return c.Valid() && s&(1<<c.bit()) != 0
}

// Union 并集
func (s CellSet) Union(o CellSet) CellSet { return s | o }

// Minus 差集
func (s CellSet) Minus(o CellSet) CellSet { return s &^ o }

// Intersects 两个集合是否有公共格子
func (s CellSet) Intersects(o CellSet) bool { return s&o != 0 }

// Empty 是否为空集
func (s CellSet) Empty() bool { return s == 0 }

// Count 格子数量
func (s CellSet) Count() int { return bits.OnesCount64(uint64(s)) }

// Cells 按 day-major 顺序展开为格子列表
func (s CellSet) Cells() []Cell {
	out := make([]Cell, 0, s.Count())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		i := bits.TrailingZeros64(rest)
		out = append(out, Cell{Day: Day(i / Periods), Period: i%Periods + 1})
	}
	return out
}

// CountInPeriods 统计落在指定节次上的格子数
func (s CellSet) CountInPeriods(periods ...int) int {
	return s.Intersect(periodMask(periods...)).Count()
}

// CountOnDay 统计某一天的格子数
func (s CellSet) CountOnDay(d Day) int {
	return s.Intersect(dayMask(d)).Count()
}

// Intersect 交集
func (s CellSet) Intersect(o CellSet) CellSet { return s & o }

func (s CellSet) String() string {
	cells := s.Cells()
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// PeriodMask 返回所有天中指定节次构成的集合
func PeriodMask(periods ...int) CellSet { return periodMask(periods...) }

func periodMask(periods ...int) CellSet {
	var s CellSet
	for d := Monday; d <= Saturday; d++ {
		for _, p := range periods {
			s |= Of(Cell{Day: d, Period: p})
		}
	}
	return s
}

func dayMask(d Day) CellSet {
	var s CellSet
	for p := 1; p <= Periods; p++ {
		s |= Of(Cell{Day: d, Period: p})
	}
	return s
}
