package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"timetable-planner/backend/config"
	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/engine"
)

const testOwner = "owner-1"

// ── 测试辅助 ──

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		NodeBudget:     200000,
		CountCap:       500,
		RankWindow:     100,
		DefaultLimit:   5,
		MaxLimit:       100,
		SimilarLimit:   5,
		SampleAttempts: 200,
	}
}

func setupTestGenerateService() (GenerateService, *mockRepos) {
	repos := newMockRepos()
	cfg := testEngineConfig()
	eng := engine.New(engine.Limits{
		NodeBudget:     cfg.NodeBudget,
		CountCap:       cfg.CountCap,
		RankWindow:     cfg.RankWindow,
		SampleAttempts: cfg.SampleAttempts,
	})
	return NewGenerateService(cfg, repos.repo, eng, zap.NewNop()), repos
}

// seedMathPhysics 两门课：
//
//	MAT101: s-m1 A11(周一 P1) Dr. Rao；s-m2 B11(周一 P2) Dr. Iyer
//	PHY101: s-p1 A11(周一 P1) Dr. Sen（已满）；s-p2 C11(周一 P3) 教师待定
func seedMathPhysics(repos *mockRepos) {
	repos.catalog.addCourse(testOwner, "c-math", "MAT101", 4,
		slotSpec{id: "s-m1", code: "A11", faculty: "Dr. Rao", seats: 10},
		slotSpec{id: "s-m2", code: "B11", faculty: "Dr. Iyer", seats: 10},
	)
	repos.catalog.addCourse(testOwner, "c-phy", "PHY101", 3,
		slotSpec{id: "s-p1", code: "A11", faculty: "Dr. Sen", seats: 0},
		slotSpec{id: "s-p2", code: "C11", seats: 5},
	)
}

func genReq(courseIDs ...string) dto.GenerateRequest {
	return dto.GenerateRequest{CourseIDs: courseIDs}
}

func suggestionSlotIDs(sugs []dto.Suggestion) [][]string {
	out := make([][]string, len(sugs))
	for i, s := range sugs {
		out[i] = s.SlotIDs
	}
	return out
}

// ── Courses 测试 ──

func TestGenerateService_Courses(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)
	repos.catalog.addCourse("other-owner", "c-other", "AAA000", 2, slotSpec{id: "s-o1", code: "A11", seats: 1})

	courses, err := svc.Courses(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("Courses 应成功: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("只应列出本 owner 的课程，实际 %d 门", len(courses))
	}
	phy := courses[1]
	if phy.Code != "PHY101" || phy.SlotCount != 2 || phy.OpenSlotCount != 1 {
		t.Errorf("PHY101 统计错误: %+v", phy)
	}
	if len(phy.Faculties) != 2 || phy.Faculties[1] != "TBA" {
		t.Errorf("教师为空时应显示 TBA，实际 %v", phy.Faculties)
	}
}

// ── Suggest 测试 ──

func TestGenerateService_Suggest_SkipsFullSlots(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	resp, err := svc.Suggest(context.Background(), testOwner, &dto.SuggestRequest{GenerateRequest: genReq("c-math", "c-phy")})
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("期望 2 个方案（已满的 s-p1 不参与），实际 %d", len(resp.Suggestions))
	}
	first := resp.Suggestions[0]
	if first.SlotIDs[0] != "s-m1" || first.SlotIDs[1] != "s-p2" {
		t.Errorf("同分时按枚举顺序排列，实际 %v", first.SlotIDs)
	}
	if first.TotalCredits != 7 {
		t.Errorf("期望总学分 7，实际 %d", first.TotalCredits)
	}
	if first.Slots[0].CourseCode != "MAT101" || first.Slots[1].Faculty != "TBA" {
		t.Errorf("展示字段错误: %+v", first.Slots)
	}
	if resp.HasMore || resp.Truncated || resp.RelaxedConstraints {
		t.Errorf("标志位错误: %+v", resp)
	}
}

func TestGenerateService_Suggest_IncludeFull(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	req := &dto.SuggestRequest{GenerateRequest: genReq("c-math", "c-phy")}
	req.IncludeFull = true
	resp, err := svc.Suggest(context.Background(), testOwner, req)
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	// s-m1 与 s-p1 同为 A11，冲突被剪枝
	if len(resp.Suggestions) != 3 {
		t.Errorf("期望 3 个方案，实际 %d: %v", len(resp.Suggestions), suggestionSlotIDs(resp.Suggestions))
	}
}

func TestGenerateService_Suggest_FacultyRankOrdersFirst(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	req := &dto.SuggestRequest{GenerateRequest: genReq("c-math", "c-phy")}
	req.Preferences = map[string]interface{}{
		"faculty_rank": map[string]interface{}{"c-math": []interface{}{"dr. iyer"}},
	}
	resp, err := svc.Suggest(context.Background(), testOwner, req)
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	top := resp.Suggestions[0]
	if top.SlotIDs[0] != "s-m2" || top.Score != 50 || top.Details.FacultyMatches != 1 {
		t.Errorf("首选教师的方案应排第一，实际 %+v", top)
	}
}

func TestGenerateService_Suggest_StrictTimeFilter(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	req := &dto.SuggestRequest{GenerateRequest: genReq("c-math", "c-phy")}
	req.Preferences = map[string]interface{}{"avoid_early_morning": true, "time_mode": "strict"}
	resp, err := svc.Suggest(context.Background(), testOwner, req)
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].SlotIDs[0] != "s-m2" {
		t.Errorf("strict 模式应剔除第 1 节的 s-m1，实际 %v", suggestionSlotIDs(resp.Suggestions))
	}
	if resp.RelaxedConstraints {
		t.Error("有结果时不应放宽约束")
	}
}

func TestGenerateService_Suggest_UnknownCourse(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	_, err := svc.Suggest(context.Background(), testOwner, &dto.SuggestRequest{GenerateRequest: genReq("c-math", "c-missing")})
	if !errors.Is(err, ErrUnknownCourse) {
		t.Errorf("期望 ErrUnknownCourse，实际: %v", err)
	}

	// 其他 owner 的课程同样视为不存在
	repos.catalog.addCourse("other-owner", "c-other", "AAA000", 2)
	_, err = svc.Suggest(context.Background(), testOwner, &dto.SuggestRequest{GenerateRequest: genReq("c-other")})
	if !errors.Is(err, ErrUnknownCourse) {
		t.Errorf("期望 ErrUnknownCourse，实际: %v", err)
	}
}

func TestGenerateService_Suggest_InvalidPreferences(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	req := &dto.SuggestRequest{GenerateRequest: genReq("c-math")}
	req.Preferences = map[string]interface{}{"time_mode": "sometimes"}
	_, err := svc.Suggest(context.Background(), testOwner, req)
	if !errors.Is(err, dto.ErrInvalidPreferences) {
		t.Errorf("期望 ErrInvalidPreferences，实际: %v", err)
	}
}

func TestGenerateService_Suggest_UnknownTokensReported(t *testing.T) {
	svc, repos := setupTestGenerateService()
	repos.catalog.addCourse(testOwner, "c-lab", "LAB201", 1,
		slotSpec{id: "s-l1", code: "L40+XYZ9", seats: 3},
	)

	resp, err := svc.Suggest(context.Background(), testOwner, &dto.SuggestRequest{GenerateRequest: genReq("c-lab")})
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	if resp.UnknownTokens != 1 {
		t.Errorf("期望 1 个无法识别的 token，实际 %d", resp.UnknownTokens)
	}
	if len(resp.Suggestions) != 1 {
		t.Errorf("无法识别的 token 不影响生成，实际 %d 个方案", len(resp.Suggestions))
	}
}

// ── More 测试 ──

func seedNineByThree(repos *mockRepos) {
	repos.catalog.addCourse(testOwner, "c-x", "X100", 3,
		slotSpec{id: "x1", code: "A11", seats: 1}, slotSpec{id: "x2", code: "A12", seats: 1}, slotSpec{id: "x3", code: "A13", seats: 1})
	repos.catalog.addCourse(testOwner, "c-y", "Y100", 3,
		slotSpec{id: "y1", code: "B11", seats: 1}, slotSpec{id: "y2", code: "B12", seats: 1}, slotSpec{id: "y3", code: "B13", seats: 1})
	repos.catalog.addCourse(testOwner, "c-z", "Z100", 3,
		slotSpec{id: "z1", code: "C11", seats: 1}, slotSpec{id: "z2", code: "C12", seats: 1}, slotSpec{id: "z3", code: "C13", seats: 1})
}

func TestGenerateService_More_ContinuesSuggest(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedNineByThree(repos)
	ctx := context.Background()
	base := genReq("c-x", "c-y", "c-z")

	whole, err := svc.Suggest(ctx, testOwner, &dto.SuggestRequest{GenerateRequest: base, Limit: 4})
	if err != nil {
		t.Fatalf("Suggest 应成功: %v", err)
	}
	head, _ := svc.Suggest(ctx, testOwner, &dto.SuggestRequest{GenerateRequest: base, Limit: 2})
	tail, err := svc.More(ctx, testOwner, &dto.MoreRequest{GenerateRequest: base, Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("More 应成功: %v", err)
	}

	joined := append(head.Suggestions, tail.Suggestions...)
	if len(joined) != 4 || len(whole.Suggestions) != 4 {
		t.Fatalf("期望各 4 个方案，实际 %d / %d", len(joined), len(whole.Suggestions))
	}
	for i := range joined {
		if joined[i].Signature != whole.Suggestions[i].Signature {
			t.Errorf("第 %d 个方案不一致: %s vs %s", i, joined[i].Signature, whole.Suggestions[i].Signature)
		}
	}
	if !tail.HasMore || tail.Offset != 2 {
		t.Errorf("27 个方案取到第 4 个时应 has_more=true，实际 %+v", tail)
	}
}

func TestGenerateService_More_DefaultBatch(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedNineByThree(repos)

	resp, err := svc.More(context.Background(), testOwner, &dto.MoreRequest{GenerateRequest: genReq("c-x", "c-y", "c-z"), Offset: 25})
	if err != nil {
		t.Fatalf("More 应成功: %v", err)
	}
	if len(resp.Suggestions) != 2 || resp.HasMore {
		t.Errorf("offset=25 时应只剩 2 个且无更多，实际 %d, has_more=%v", len(resp.Suggestions), resp.HasMore)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, want int }{{0, 5}, {-3, 5}, {1, 1}, {100, 100}, {1000, 100}}
	for _, tc := range cases {
		if got := clampLimit(tc.in, 5, 100); got != tc.want {
			t.Errorf("clampLimit(%d) = %d，期望 %d", tc.in, got, tc.want)
		}
	}
}

// ── Similar 测试 ──

func TestGenerateService_Similar(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	resp, err := svc.Similar(context.Background(), testOwner, &dto.SimilarRequest{
		GenerateRequest:  genReq("c-math", "c-phy"),
		ReferenceSlotIDs: []string{"s-p2", "s-m1"},
	})
	if err != nil {
		t.Fatalf("Similar 应成功: %v", err)
	}
	if len(resp.Suggestions) != 1 {
		t.Fatalf("期望 1 个相似方案，实际 %v", suggestionSlotIDs(resp.Suggestions))
	}
	got := resp.Suggestions[0].SlotIDs
	if got[0] != "s-m2" || got[1] != "s-p2" {
		t.Errorf("期望 [s-m2 s-p2]，实际 %v", got)
	}
}

func TestGenerateService_Similar_FullReferenceAllowed(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	// 参考方案中的 s-p1 已满，但仍可作为参考
	resp, err := svc.Similar(context.Background(), testOwner, &dto.SimilarRequest{
		GenerateRequest:  genReq("c-math", "c-phy"),
		ReferenceSlotIDs: []string{"s-m2", "s-p1"},
	})
	if err != nil {
		t.Fatalf("Similar 应成功: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Signature != "s-m2,s-p2" {
		t.Errorf("期望只替换 PHY101 得到 s-m2,s-p2，实际 %v", suggestionSlotIDs(resp.Suggestions))
	}
}

func TestGenerateService_Similar_SeenExcluded(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)

	resp, err := svc.Similar(context.Background(), testOwner, &dto.SimilarRequest{
		GenerateRequest:  genReq("c-math", "c-phy"),
		ReferenceSlotIDs: []string{"s-m1", "s-p2"},
		Seen:             [][]string{{"s-p2", "s-m2"}},
	})
	if err != nil {
		t.Fatalf("Similar 应成功: %v", err)
	}
	if len(resp.Suggestions) != 0 {
		t.Errorf("已见过的方案应被排除，实际 %v", suggestionSlotIDs(resp.Suggestions))
	}
}

func TestGenerateService_Similar_InvalidReference(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedMathPhysics(repos)
	repos.catalog.addCourse(testOwner, "c-chem", "CHE101", 3, slotSpec{id: "s-c1", code: "D11", seats: 5})

	cases := []struct {
		name string
		ref  []string
	}{
		{"缺少一门课", []string{"s-m1"}},
		{"同课程两个时段", []string{"s-m1", "s-m2"}},
		{"不属于所选课程", []string{"s-m1", "s-c1"}},
		{"不存在", []string{"s-m1", "s-nope"}},
	}
	for _, tc := range cases {
		_, err := svc.Similar(context.Background(), testOwner, &dto.SimilarRequest{
			GenerateRequest:  genReq("c-math", "c-phy"),
			ReferenceSlotIDs: tc.ref,
		})
		if !errors.Is(err, ErrInvalidReference) {
			t.Errorf("%s: 期望 ErrInvalidReference，实际 %v", tc.name, err)
		}
	}
}

// ── Count 测试 ──

func TestGenerateService_Count(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedNineByThree(repos)

	for _, mode := range []string{"", "standard", "distinct", "pattern"} {
		resp, err := svc.Count(context.Background(), testOwner, &dto.CountRequest{
			GenerateRequest: genReq("c-x", "c-y", "c-z"),
			Mode:            mode,
		})
		if err != nil {
			t.Fatalf("Count(%q) 应成功: %v", mode, err)
		}
		if resp.Count != 27 || resp.Capped {
			t.Errorf("Count(%q) 期望 27 且未触顶，实际 %+v", mode, resp)
		}
	}
}

// ── Random 测试 ──

func TestGenerateService_Random_SeedReproducible(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedNineByThree(repos)
	ctx := context.Background()

	seed := int64(42)
	req := &dto.RandomRequest{GenerateRequest: genReq("c-x", "c-y", "c-z"), Seed: &seed, Limit: 5}
	a, err := svc.Random(ctx, testOwner, req)
	if err != nil {
		t.Fatalf("Random 应成功: %v", err)
	}
	b, _ := svc.Random(ctx, testOwner, req)

	if a.Seed == nil || *a.Seed != 42 {
		t.Errorf("响应应回显种子，实际 %v", a.Seed)
	}
	if len(a.Suggestions) == 0 || len(a.Suggestions) != len(b.Suggestions) {
		t.Fatalf("相同种子结果数量应一致: %d vs %d", len(a.Suggestions), len(b.Suggestions))
	}
	for i := range a.Suggestions {
		if a.Suggestions[i].Signature != b.Suggestions[i].Signature {
			t.Errorf("相同种子第 %d 个方案不一致", i)
		}
	}
}

func TestGenerateService_Random_GeneratesSeed(t *testing.T) {
	svc, repos := setupTestGenerateService()
	seedNineByThree(repos)

	resp, err := svc.Random(context.Background(), testOwner, &dto.RandomRequest{GenerateRequest: genReq("c-x")})
	if err != nil {
		t.Fatalf("Random 应成功: %v", err)
	}
	if resp.Seed == nil {
		t.Error("未提供种子时应在响应中返回生成的种子")
	}
	if len(resp.Suggestions) != 3 {
		t.Errorf("单门课 3 个时段，期望 3 个方案，实际 %d", len(resp.Suggestions))
	}
}
