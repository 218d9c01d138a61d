package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"timetable-planner/backend/internal/model"
	"timetable-planner/backend/internal/repository"
	pkgerrors "timetable-planner/backend/pkg/errors"
)

// ── 内存目录（课程 + 时段） ──

type mockCatalog struct {
	courses map[string]*model.Course
	slots   map[string]*model.Slot
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		courses: make(map[string]*model.Course),
		slots:   make(map[string]*model.Slot),
	}
}

// slotSpec 测试用时段定义；seats 为剩余座位数
type slotSpec struct {
	id      string
	code    string
	faculty string
	seats   int
}

func (m *mockCatalog) addCourse(ownerID, courseID, code string, credits int, specs ...slotSpec) {
	m.courses[courseID] = &model.Course{
		CourseID: courseID,
		OwnerID:  ownerID,
		Code:     code,
		Name:     code + " 课程",
		Credits:  credits,
	}
	for _, sp := range specs {
		slot := &model.Slot{
			SlotID:         sp.id,
			CourseID:       courseID,
			SlotCode:       sp.code,
			Venue:          "AB1-" + sp.id,
			TotalSeats:     60,
			AvailableSeats: sp.seats,
		}
		if sp.faculty != "" {
			f := sp.faculty
			slot.Faculty = &f
		}
		m.slots[sp.id] = slot
	}
}

// slotWithCourse 返回带 Course 关联的副本（模拟 Preload）
func (m *mockCatalog) slotWithCourse(id string) (model.Slot, bool) {
	s, ok := m.slots[id]
	if !ok {
		return model.Slot{}, false
	}
	out := *s
	if c, ok := m.courses[s.CourseID]; ok {
		cc := *c
		cc.Slots = nil
		out.Course = &cc
	}
	return out, true
}

func (m *mockCatalog) ownsSlot(ownerID, id string) bool {
	s, ok := m.slots[id]
	if !ok {
		return false
	}
	c, ok := m.courses[s.CourseID]
	return ok && c.OwnerID == ownerID
}

func (m *mockCatalog) courseWithSlots(c *model.Course) model.Course {
	out := *c
	out.Slots = nil
	for _, s := range m.slots {
		if s.CourseID == c.CourseID {
			out.Slots = append(out.Slots, *s)
		}
	}
	sort.Slice(out.Slots, func(i, j int) bool { return out.Slots[i].SlotID < out.Slots[j].SlotID })
	return out
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	catalog *mockCatalog
}

func (m *mockCourseRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.catalog.courses {
		if c.OwnerID == ownerID {
			result = append(result, m.catalog.courseWithSlots(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) ListByIDs(_ context.Context, ownerID string, ids []string) ([]model.Course, error) {
	var result []model.Course
	for _, id := range ids {
		if c, ok := m.catalog.courses[id]; ok && c.OwnerID == ownerID {
			result = append(result, m.catalog.courseWithSlots(c))
		}
	}
	return result, nil
}

func (m *mockCourseRepo) Search(_ context.Context, ownerID, keyword string, limit int) ([]model.Course, error) {
	kw := strings.ToLower(keyword)
	var result []model.Course
	for _, c := range m.catalog.courses {
		if c.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(c.Code), kw) || strings.Contains(strings.ToLower(c.Name), kw) {
			out := *c
			out.Slots = nil
			result = append(result, out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, ownerID, id string) (*model.Course, error) {
	c, ok := m.catalog.courses[id]
	if !ok || c.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	out.Slots = nil
	return &out, nil
}

// ── Mock SlotRepository ──

type mockSlotRepo struct {
	catalog *mockCatalog
}

func (m *mockSlotRepo) GetByID(_ context.Context, ownerID, id string) (*model.Slot, error) {
	if !m.catalog.ownsSlot(ownerID, id) {
		return nil, gorm.ErrRecordNotFound
	}
	s, _ := m.catalog.slotWithCourse(id)
	return &s, nil
}

func (m *mockSlotRepo) ListByIDs(_ context.Context, ownerID string, ids []string) ([]model.Slot, error) {
	var result []model.Slot
	for _, id := range ids {
		if m.catalog.ownsSlot(ownerID, id) {
			s, _ := m.catalog.slotWithCourse(id)
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SlotID < result[j].SlotID })
	return result, nil
}

func (m *mockSlotRepo) ListByCourse(_ context.Context, ownerID, courseID string) ([]model.Slot, error) {
	var result []model.Slot
	for id, s := range m.catalog.slots {
		if s.CourseID == courseID && m.catalog.ownsSlot(ownerID, id) {
			sl, _ := m.catalog.slotWithCourse(id)
			result = append(result, sl)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SlotID < result[j].SlotID })
	return result, nil
}

// ── Mock RegistrationRepository ──

// mockRegistrationRepo mu 保护内部数据，ownerMu 模拟 owner 级事务锁
type mockRegistrationRepo struct {
	catalog *mockCatalog
	regs    map[string]*model.Registration
	order   []string
	seq     int

	mu      sync.Mutex
	ownerMu sync.Mutex
}

func newMockRegistrationRepo(catalog *mockCatalog) *mockRegistrationRepo {
	return &mockRegistrationRepo{catalog: catalog, regs: make(map[string]*model.Registration)}
}

func (m *mockRegistrationRepo) withSlot(r *model.Registration) model.Registration {
	out := *r
	if s, ok := m.catalog.slotWithCourse(r.SlotID); ok {
		out.Slot = &s
	}
	return out
}

func (m *mockRegistrationRepo) WithOwnerLock(_ context.Context, _ string, fn func(tx repository.RegistrationRepository) error) error {
	m.ownerMu.Lock()
	defer m.ownerMu.Unlock()
	return fn(m)
}

func (m *mockRegistrationRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Registration
	for _, id := range m.order {
		if r, ok := m.regs[id]; ok && r.OwnerID == ownerID {
			result = append(result, m.withSlot(r))
		}
	}
	return result, nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, ownerID, id string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok || r.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.withSlot(r)
	return &out, nil
}

func (m *mockRegistrationRepo) Create(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(reg)
}

func (m *mockRegistrationRepo) create(reg *model.Registration) error {
	for _, r := range m.regs {
		if r.OwnerID == reg.OwnerID && r.SlotID == reg.SlotID {
			return fmt.Errorf("duplicate key value violates unique constraint \"uk_registration_owner_slot\"")
		}
	}
	m.seq++
	if reg.RegistrationID == "" {
		reg.RegistrationID = fmt.Sprintf("reg-%d", m.seq)
	}
	if reg.Version == 0 {
		reg.Version = 1
	}
	stored := *reg
	stored.Slot = nil
	m.regs[reg.RegistrationID] = &stored
	m.order = append(m.order, reg.RegistrationID)
	return nil
}

func (m *mockRegistrationRepo) UpdateSlot(_ context.Context, reg *model.Registration, newSlotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.regs[reg.RegistrationID]
	if !ok || stored.OwnerID != reg.OwnerID || stored.Version != reg.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.SlotID = newSlotID
	stored.Version++
	reg.SlotID = newSlotID
	reg.Version = stored.Version
	return nil
}

func (m *mockRegistrationRepo) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok || r.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(m.regs, id)
	return nil
}

func (m *mockRegistrationRepo) DeleteByIDs(_ context.Context, ownerID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if r, ok := m.regs[id]; ok && r.OwnerID == ownerID {
			delete(m.regs, id)
			n++
		}
	}
	return n, nil
}

func (m *mockRegistrationRepo) ReplaceByOwner(_ context.Context, ownerID string, slotIDs []string) ([]model.Registration, error) {
	m.ownerMu.Lock()
	defer m.ownerMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	var unavailable []pkgerrors.SlotUnavailable
	for _, id := range slotIDs {
		switch {
		case !m.catalog.ownsSlot(ownerID, id):
			unavailable = append(unavailable, pkgerrors.SlotUnavailable{SlotID: id, Reason: pkgerrors.ReasonSlotNotFound})
		case m.catalog.slots[id].IsFull():
			unavailable = append(unavailable, pkgerrors.SlotUnavailable{SlotID: id, Reason: pkgerrors.ReasonSlotFull})
		}
	}
	if len(unavailable) > 0 {
		return nil, &pkgerrors.SlotUnavailableError{Slots: unavailable}
	}

	for id, r := range m.regs {
		if r.OwnerID == ownerID {
			delete(m.regs, id)
		}
	}
	regs := make([]model.Registration, 0, len(slotIDs))
	for _, id := range slotIDs {
		reg := model.Registration{OwnerID: ownerID, SlotID: id}
		if err := m.create(&reg); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// ── Mock SavedTimetableRepository ──

type mockSavedTimetableRepo struct {
	items map[string]*model.SavedTimetable
	seq   int
}

func newMockSavedTimetableRepo() *mockSavedTimetableRepo {
	return &mockSavedTimetableRepo{items: make(map[string]*model.SavedTimetable)}
}

func (m *mockSavedTimetableRepo) Create(_ context.Context, st *model.SavedTimetable) error {
	m.seq++
	if st.SavedTimetableID == "" {
		st.SavedTimetableID = fmt.Sprintf("saved-%d", m.seq)
	}
	stored := *st
	m.items[st.SavedTimetableID] = &stored
	return nil
}

func (m *mockSavedTimetableRepo) ListByOwner(_ context.Context, ownerID string) ([]model.SavedTimetable, error) {
	var result []model.SavedTimetable
	for _, st := range m.items {
		if st.OwnerID == ownerID {
			result = append(result, *st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SavedTimetableID > result[j].SavedTimetableID })
	return result, nil
}

func (m *mockSavedTimetableRepo) GetByID(_ context.Context, ownerID, id string) (*model.SavedTimetable, error) {
	st, ok := m.items[id]
	if !ok || st.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *st
	return &out, nil
}

func (m *mockSavedTimetableRepo) Delete(_ context.Context, ownerID, id string) error {
	st, ok := m.items[id]
	if !ok || st.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

// ── 测试辅助 ──

type mockRepos struct {
	catalog      *mockCatalog
	registration *mockRegistrationRepo
	saved        *mockSavedTimetableRepo
	repo         *repository.Repository
}

func newMockRepos() *mockRepos {
	catalog := newMockCatalog()
	regRepo := newMockRegistrationRepo(catalog)
	savedRepo := newMockSavedTimetableRepo()
	return &mockRepos{
		catalog:      catalog,
		registration: regRepo,
		saved:        savedRepo,
		repo: &repository.Repository{
			Course:         &mockCourseRepo{catalog: catalog},
			Slot:           &mockSlotRepo{catalog: catalog},
			Registration:   regRepo,
			SavedTimetable: savedRepo,
		},
	}
}
