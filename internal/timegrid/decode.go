package timegrid

import (
	"fmt"
	"strings"
)

// ── Slot code → 格子 ──
//
// 理论课 token 由「字母 + 时段组 + 天序号」组成，例如 A11：
//   - 字母 A/B/C 落在周一/三/五，D/E/F 落在周二/四/六
//   - 时段组 1 对应上午（第 1~3 节），2 对应下午（第 4~6 节）
//   - G1x 为周一/三/五晚间第 7 节，G2x 为周二/四/六晚间第 7 节
//   - 末位 1/2/3 依次选择该行的三天
//
// 实验课 token L1 ~ L42 按 day-major 顺序逐格映射。

// tokenTable 静态 token 表，包初始化时构建，之后只读
var tokenTable = buildTokenTable()

var (
	oddDays  = [3]Day{Monday, Wednesday, Friday}
	evenDays = [3]Day{Tuesday, Thursday, Saturday}
)

func buildTokenTable() map[string]Cell {
	table := make(map[string]Cell, 96)

	rows := []struct {
		letter string
		days   [3]Day
	}{
		{"A", oddDays}, {"B", oddDays}, {"C", oddDays},
		{"D", evenDays}, {"E", evenDays}, {"F", evenDays},
	}
	for i, row := range rows {
		band := i % 3 // A/D → 0, B/E → 1, C/F → 2
		for x := 0; x < 3; x++ {
			table[fmt.Sprintf("%s1%d", row.letter, x+1)] = Cell{Day: row.days[x], Period: band + 1}
			table[fmt.Sprintf("%s2%d", row.letter, x+1)] = Cell{Day: row.days[x], Period: LunchAfterPeriod + band + 1}
		}
	}
	for x := 0; x < 3; x++ {
		table[fmt.Sprintf("G1%d", x+1)] = Cell{Day: oddDays[x], Period: Periods}
		table[fmt.Sprintf("G2%d", x+1)] = Cell{Day: evenDays[x], Period: Periods}
	}

	for n := 1; n <= Days*Periods; n++ {
		table[fmt.Sprintf("L%d", n)] = Cell{Day: Day((n - 1) / Periods), Period: (n-1)%Periods + 1}
	}
	return table
}

// Occupancy Decode 的结果
type Occupancy struct {
	Cells CellSet
	// Unknown 表中不存在的 token（保持出现顺序），调用方据此记录告警
	Unknown []string
}

// Warnings 未知 token 数量
func (o Occupancy) Warnings() int { return len(o.Unknown) }

// Lookup 查询单个 token 对应的格子
func Lookup(token string) (Cell, bool) {
	c, ok := tokenTable[normalizeToken(token)]
	return c, ok
}

// Tokens 按分隔符 '+' 和 '/' 拆分 slot code，返回规范化后的非空 token
func Tokens(code string) []string {
	fields := strings.FieldsFunc(code, func(r rune) bool {
		return r == '+' || r == '/'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := normalizeToken(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Decode 将 slot code 解析为占用格子集合
// 未知 token 不占用任何格子，但会出现在 Occupancy.Unknown 中
func Decode(code string) Occupancy {
	var occ Occupancy
	for _, t := range Tokens(code) {
		c, ok := tokenTable[t]
		if !ok {
			occ.Unknown = append(occ.Unknown, t)
			continue
		}
		occ.Cells |= Of(c)
	}
	return occ
}

func normalizeToken(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// ── 节次时间 ──

// Window 节次的起止时间（HH:MM）
type Window struct {
	Start string
	End   string
}

var periodWindows = [Periods]Window{
	{"08:30", "09:45"},
	{"09:50", "11:05"},
	{"11:10", "12:25"},
	// 12:25 ~ 13:15 午休
	{"13:15", "14:30"},
	{"14:35", "15:50"},
	{"15:55", "17:10"},
	{"18:00", "19:15"},
}

// PeriodWindow 返回节次的起止时间
func PeriodWindow(period int) (Window, bool) {
	if period < 1 || period > Periods {
		return Window{}, false
	}
	return periodWindows[period-1], true
}
