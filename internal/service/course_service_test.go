package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func setupTestCourseService() (CourseService, *mockRepos) {
	repos := newMockRepos()
	seedFiveCourses(repos)
	repos.catalog.addCourse("owner-2", "other", "CSE900", 3,
		slotSpec{id: "other-1", code: "A11", seats: 10})
	return NewCourseService(repos.repo, zap.NewNop()), repos
}

func TestCourseService_Search(t *testing.T) {
	svc, _ := setupTestCourseService()
	ctx := context.Background()

	list, err := svc.Search(ctx, testOwner, "  cse10 ")
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(list) != 5 || list[0].Code != "CSE101" {
		t.Errorf("期望 5 门本人课程且按代码排序，实际 %+v", list)
	}

	list, _ = svc.Search(ctx, testOwner, "CSE900")
	if len(list) != 0 {
		t.Errorf("不应检索到其他 owner 的课程: %+v", list)
	}

	list, err = svc.Search(ctx, testOwner, "   ")
	if err != nil || list == nil || len(list) != 0 {
		t.Errorf("空关键字应返回空列表，实际 %v, %v", list, err)
	}
}

func TestCourseService_Get(t *testing.T) {
	svc, _ := setupTestCourseService()
	ctx := context.Background()

	course, err := svc.Get(ctx, testOwner, "c1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if course.Code != "CSE101" || course.Credits != 4 {
		t.Errorf("课程信息错误: %+v", course)
	}

	if _, err := svc.Get(ctx, testOwner, "other"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("其他 owner 的课程应视为不存在，实际 %v", err)
	}
}

func TestCourseService_Slots(t *testing.T) {
	svc, _ := setupTestCourseService()
	ctx := context.Background()

	resp, err := svc.Slots(ctx, testOwner, "c3")
	if err != nil {
		t.Fatalf("查询时段失败: %v", err)
	}
	if resp.Course.Code != "CSE103" || len(resp.Slots) != 2 {
		t.Fatalf("期望 CSE103 的 2 个时段，实际 %+v", resp)
	}
	open, full := resp.Slots[0], resp.Slots[1]
	if open.SlotID != "c3-1" || open.SlotCode != "C11" || open.IsFull {
		t.Errorf("c3-1 信息错误: %+v", open)
	}
	if full.SlotID != "c3-2" || !full.IsFull || full.AvailableSeats != 0 {
		t.Errorf("已满时段也应列出并标记 is_full: %+v", full)
	}
	if open.Faculty != "TBA" {
		t.Errorf("未指定教师应显示 TBA，实际 %s", open.Faculty)
	}

	if _, err := svc.Slots(ctx, testOwner, "missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际 %v", err)
	}
}
