package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timetable-planner/backend/config"
	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/model"
	"timetable-planner/backend/internal/repository"
	"timetable-planner/backend/internal/timegrid"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRegistrations = errors.New("当前没有任何登记")
	ErrExportInvalidDate     = errors.New("start_date 格式无效")
	ErrExportGenerateFail    = errors.New("生成导出文件失败")
)

// 导出格式
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatICS  = "ics"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - xlsx：当前登记的清单（每门课一行），不绘制周课表网格
//   - ics：每个登记按占用的节次生成每周重复事件，同一天连续节次合并为一个事件（不跨午休）
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRegistrations 导出当前登记，返回 buf、建议文件名、error
	ExportRegistrations(ctx context.Context, ownerID string, req *dto.ExportRegistrationsRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    config.ExportConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg config.ExportConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

func (s *exportService) ExportRegistrations(ctx context.Context, ownerID string, req *dto.ExportRegistrationsRequest) (*bytes.Buffer, string, error) {
	regs, err := s.repo.Registration.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询登记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, "", err
	}
	regs = lo.Filter(regs, func(r model.Registration, _ int) bool { return r.Slot != nil })
	if len(regs) == 0 {
		return nil, "", ErrExportNoRegistrations
	}

	if req.Format == ExportFormatICS {
		return s.exportICS(regs, req)
	}
	return s.exportXLSX(regs)
}

// ═══════════════════════════════════════════════════════════
// exportXLSX：登记清单
// ═══════════════════════════════════════════════════════════
//
// 表头：课程代码 | 课程名称 | 学分 | 时段代码 | 教师 | 教室 | 上课时间
// 末行为学分合计

func (s *exportService) exportXLSX(regs []model.Registration) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "选课登记"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"课程代码", "课程名称", "学分", "时段代码", "教师", "教室", "上课时间"}
	widths := []float64{12, 32, 6, 18, 24, 14, 48}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, cell(colName(0), 1), cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	total := 0
	for _, r := range regs {
		sl := toSuggestionSlot(r.Slot)
		occ := timegrid.Decode(sl.SlotCode)
		values := []interface{}{
			sl.CourseCode, sl.CourseName, sl.Credits, sl.SlotCode, sl.Faculty, sl.Venue, describeCells(occ.Cells),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		total += sl.Credits
		row++
	}

	f.SetCellValue(sheetName, cell("B", row), "合计学分")
	f.SetCellValue(sheetName, cell("C", row), total)
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetName, cell("B", row), cell("C", row), boldStyle)

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, "timetable.xlsx", nil
}

// describeCells 例如 "MON 08:30-09:45, WED 08:30-09:45"
func describeCells(cells timegrid.CellSet) string {
	parts := lo.Map(mergeRuns(cells), func(r periodRun, _ int) string {
		return fmt.Sprintf("%s %s-%s", r.day, r.start.Start, r.end.End)
	})
	return strings.Join(parts, ", ")
}

// ═══════════════════════════════════════════════════════════
// exportICS：每周重复事件
// ═══════════════════════════════════════════════════════════

func (s *exportService) exportICS(regs []model.Registration, req *dto.ExportRegistrationsRequest) (*bytes.Buffer, string, error) {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		s.logger.Error("加载时区失败", zap.String("timezone", s.cfg.Timezone), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	weekStart, err := s.firstMonday(req.StartDate, loc)
	if err != nil {
		return nil, "", err
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = s.cfg.Weeks
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timetable-planner//registrations//EN")
	cal.SetXWRCalName("Timetable")
	cal.SetXWRTimezone(s.cfg.Timezone)

	stamp := s.now().UTC()
	for _, r := range regs {
		sl := toSuggestionSlot(r.Slot)
		for _, run := range mergeRuns(timegrid.Decode(sl.SlotCode).Cells) {
			day := weekStart.AddDate(0, 0, int(run.day))
			start, err1 := atClock(day, run.start.Start)
			end, err2 := atClock(day, run.end.End)
			if err1 != nil || err2 != nil {
				return nil, "", ErrExportGenerateFail
			}

			uid := fmt.Sprintf("%s-%s-P%d@timetable-planner", r.RegistrationID, run.day, run.from)
			event := cal.AddEvent(uid)
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(strings.TrimSpace(sl.CourseCode + " " + sl.CourseName))
			if sl.Venue != "" {
				event.SetLocation(sl.Venue)
			}
			event.SetDescription(fmt.Sprintf("%s / %s", sl.Faculty, sl.SlotCode))
			event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, "timetable.ics", nil
}

// firstMonday start_date 所在周的周一；为空时取今天起的第一个周一
func (s *exportService) firstMonday(startDate string, loc *time.Location) (time.Time, error) {
	var d time.Time
	if startDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", startDate, loc)
		if err != nil {
			return time.Time{}, ErrExportInvalidDate
		}
		d = parsed
		offset := (int(d.Weekday()) + 6) % 7 // 周一 = 0
		return d.AddDate(0, 0, -offset), nil
	}

	now := s.now().In(loc)
	d = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	ahead := (8 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, ahead), nil
}

func atClock(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// ── 连续节次合并 ──

type periodRun struct {
	day      timegrid.Day
	from, to int
	start    timegrid.Window
	end      timegrid.Window
}

// mergeRuns 同一天的连续节次合并为一段；午休两侧不合并
func mergeRuns(cells timegrid.CellSet) []periodRun {
	var runs []periodRun
	for _, c := range cells.Cells() {
		w, _ := timegrid.PeriodWindow(c.Period)
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			if last.day == c.Day && last.to == c.Period-1 && last.to != timegrid.LunchAfterPeriod {
				last.to = c.Period
				last.end = w
				continue
			}
		}
		runs = append(runs, periodRun{day: c.Day, from: c.Period, to: c.Period, start: w, end: w})
	}
	return runs
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
