package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/domain/consultationtype"
	"github.com/medagenda/api/internal/domain/doctor"
	"github.com/medagenda/api/internal/service"
)

// memStore backs the in-memory repositories used by the service tests.
// One mutex guards everything; the fake transactor layers its own
// serialization on top so concurrent bookings behave like row locks.
type memStore struct {
	mu sync.Mutex

	appts      map[uint]*appointment.Appointment
	nextApptID uint
	// createApptErr, when set, fails the next appointment insert. Used to
	// drive the reschedule rollback test.
	createApptErr error

	blocked     map[uint]*blockedtime.BlockedTime
	nextBlockID uint

	types       map[uint]*consultationtype.ConsultationType
	nextTypeID  uint
	doctorTypes map[uint]map[uint]bool

	doctors map[uint]*doctor.Doctor
	links   map[[2]uint]bool
}

func newMemStore() *memStore {
	return &memStore{
		appts:       make(map[uint]*appointment.Appointment),
		blocked:     make(map[uint]*blockedtime.BlockedTime),
		types:       make(map[uint]*consultationtype.ConsultationType),
		doctorTypes: make(map[uint]map[uint]bool),
		doctors:     make(map[uint]*doctor.Doctor),
		links:       make(map[[2]uint]bool),
	}
}

func (s *memStore) addDoctor(d *doctor.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
}

func (s *memStore) addType(t *consultationtype.ConsultationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[t.ID] = t
	if t.ID >= s.nextTypeID {
		s.nextTypeID = t.ID
	}
}

func (s *memStore) linkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

func cloneAppointment(a *appointment.Appointment) *appointment.Appointment {
	cp := *a
	if a.RescheduledFrom != nil {
		v := *a.RescheduledFrom
		cp.RescheduledFrom = &v
	}
	if a.CancelledAt != nil {
		v := *a.CancelledAt
		cp.CancelledAt = &v
	}
	return &cp
}

// --- appointment repository ---

type memAppointments struct{ s *memStore }

func (m *memAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.createApptErr != nil {
		return m.s.createApptErr
	}
	for _, existing := range m.s.appts {
		if existing.DoctorID == a.DoctorID && existing.Date == a.Date && existing.Time == a.Time &&
			existing.Status != appointment.StatusCancelled {
			return appointment.ErrSlotTaken
		}
	}
	m.s.nextApptID++
	a.ID = m.s.nextApptID
	m.s.appts[a.ID] = cloneAppointment(a)
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uint) (*appointment.Appointment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (m *memAppointments) FindBySlot(_ context.Context, doctorID uint, date, timeOfDay string, excludeID *uint) (*appointment.Appointment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.appts {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeOfDay &&
			a.Status != appointment.StatusCancelled {
			return cloneAppointment(a), nil
		}
	}
	return nil, nil
}

func (m *memAppointments) LockSlot(ctx context.Context, doctorID uint, date, timeOfDay string, excludeID *uint) (*appointment.Appointment, error) {
	// The fake transactor serializes whole transactions, which gives the
	// same observable behavior as a row lock.
	return m.FindBySlot(ctx, doctorID, date, timeOfDay, excludeID)
}

func (m *memAppointments) OccupiedTimes(_ context.Context, date string, doctorID uint, includeCancelled bool) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var times []string
	for _, a := range m.s.appts {
		if a.Date != date || a.DoctorID != doctorID {
			continue
		}
		if !includeCancelled && a.Status == appointment.StatusCancelled {
			continue
		}
		times = append(times, a.Time)
	}
	sort.Strings(times)
	return times, nil
}

func (m *memAppointments) AnyActiveAt(_ context.Context, date, timeOfDay string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.appts {
		if a.Date == date && a.Time == timeOfDay && a.Status != appointment.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAppointments) Edit(_ context.Context, id uint, cmd *appointment.EditCommand) (*appointment.Appointment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	for _, other := range m.s.appts {
		if other.ID == id {
			continue
		}
		if other.DoctorID == a.DoctorID && other.Date == cmd.Date && other.Time == cmd.Time &&
			other.Status != appointment.StatusCancelled {
			return nil, appointment.ErrSlotTaken
		}
	}
	a.Date = cmd.Date
	a.Time = cmd.Time
	if cmd.ConsultationTypeID != nil {
		a.ConsultationTypeID = *cmd.ConsultationTypeID
	}
	if cmd.Notes != nil {
		a.Notes = *cmd.Notes
	}
	return cloneAppointment(a), nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, a *appointment.Appointment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.appts[a.ID]
	if !ok {
		return appointment.ErrNotFound
	}
	stored.Status = a.Status
	stored.CancelledAt = a.CancelledAt
	stored.CancellationReason = a.CancellationReason
	return nil
}

func (m *memAppointments) Delete(_ context.Context, id uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.appts[id]; !ok {
		return appointment.ErrNotFound
	}
	delete(m.s.appts, id)
	return nil
}

func (m *memAppointments) List(_ context.Context, q *appointment.ListQuery) (*appointment.PagedAppointments, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var matched []*appointment.Appointment
	for _, a := range m.s.appts {
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		if q.Date != nil && a.Date != *q.Date {
			continue
		}
		matched = append(matched, cloneAppointment(a))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := (q.Page - 1) * q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &appointment.PagedAppointments{
		Appointments: matched[start:end],
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
	}, nil
}

// --- blocked-time repository ---

type memBlocked struct{ s *memStore }

func (m *memBlocked) Create(_ context.Context, b *blockedtime.BlockedTime) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.blocked {
		if existing.Date == b.Date && existing.Time == b.Time {
			return blockedtime.ErrAlreadyBlocked
		}
	}
	m.s.nextBlockID++
	b.ID = m.s.nextBlockID
	cp := *b
	m.s.blocked[b.ID] = &cp
	return nil
}

func (m *memBlocked) GetByID(_ context.Context, id uint) (*blockedtime.BlockedTime, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.blocked[id]
	if !ok {
		return nil, blockedtime.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBlocked) IsBlocked(_ context.Context, date, timeOfDay string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, b := range m.s.blocked {
		if b.Date == date && b.Time == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBlocked) TimesForDate(_ context.Context, date string) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var times []string
	for _, b := range m.s.blocked {
		if b.Date == date {
			times = append(times, b.Time)
		}
	}
	sort.Strings(times)
	return times, nil
}

func (m *memBlocked) List(_ context.Context, q *blockedtime.ListQuery) (*blockedtime.PagedBlockedTimes, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var matched []*blockedtime.BlockedTime
	for _, b := range m.s.blocked {
		if q.Date != nil && b.Date != *q.Date {
			continue
		}
		cp := *b
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return &blockedtime.PagedBlockedTimes{
		BlockedTimes: matched,
		TotalCount:   int64(len(matched)),
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   1,
	}, nil
}

func (m *memBlocked) Delete(_ context.Context, id uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.blocked[id]; !ok {
		return blockedtime.ErrNotFound
	}
	delete(m.s.blocked, id)
	return nil
}

// --- consultation-type repository ---

type memTypes struct{ s *memStore }

func (m *memTypes) Create(_ context.Context, t *consultationtype.ConsultationType) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.types {
		if strings.EqualFold(existing.Name, t.Name) {
			return consultationtype.ErrNameTaken
		}
	}
	m.s.nextTypeID++
	t.ID = m.s.nextTypeID
	cp := *t
	m.s.types[t.ID] = &cp
	return nil
}

func (m *memTypes) GetByID(_ context.Context, id uint) (*consultationtype.ConsultationType, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.types[id]
	if !ok {
		return nil, consultationtype.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTypes) Exists(_ context.Context, id uint) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.types[id]
	return ok, nil
}

func (m *memTypes) Update(_ context.Context, id uint, cmd *consultationtype.UpdateCommand) (*consultationtype.ConsultationType, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.types[id]
	if !ok {
		return nil, consultationtype.ErrNotFound
	}
	if cmd.Name != nil {
		t.Name = *cmd.Name
	}
	if cmd.DurationMins != nil {
		t.DurationMins = *cmd.DurationMins
	}
	if cmd.Description != nil {
		t.Description = *cmd.Description
	}
	cp := *t
	return &cp, nil
}

func (m *memTypes) Delete(_ context.Context, id uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.types[id]; !ok {
		return consultationtype.ErrNotFound
	}
	for _, a := range m.s.appts {
		if a.ConsultationTypeID == id {
			return consultationtype.ErrInUse
		}
	}
	delete(m.s.types, id)
	return nil
}

func (m *memTypes) List(_ context.Context) ([]*consultationtype.ConsultationType, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*consultationtype.ConsultationType
	for _, t := range m.s.types {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTypes) IDsForDoctor(_ context.Context, doctorID uint) ([]uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var ids []uint
	for id := range m.s.doctorTypes[doctorID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memTypes) AssignToDoctor(_ context.Context, doctorID, typeID uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.doctorTypes[doctorID] == nil {
		m.s.doctorTypes[doctorID] = make(map[uint]bool)
	}
	m.s.doctorTypes[doctorID][typeID] = true
	return nil
}

func (m *memTypes) UnassignFromDoctor(_ context.Context, doctorID, typeID uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.doctorTypes[doctorID], typeID)
	return nil
}

// --- doctor repository ---

type memDoctors struct{ s *memStore }

func (m *memDoctors) Exists(_ context.Context, id uint) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.doctors[id]
	return ok && d.Active, nil
}

func (m *memDoctors) GetByID(_ context.Context, id uint) (*doctor.Doctor, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.doctors[id]
	if !ok {
		return nil, doctor.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDoctors) List(_ context.Context) ([]*doctor.Doctor, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*doctor.Doctor
	for _, d := range m.s.doctors {
		if d.Active {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDoctors) EnsurePatientLink(_ context.Context, doctorID, patientID uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.links[[2]uint{doctorID, patientID}] = true
	return nil
}

func (m *memDoctors) PatientIDs(_ context.Context, doctorID uint) ([]uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var ids []uint
	for k := range m.s.links {
		if k[0] == doctorID {
			ids = append(ids, k[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// --- transactor ---

// memTransactor serializes transactions with a dedicated mutex and rolls
// the store back to a snapshot when fn fails, mirroring commit/rollback.
type memTransactor struct {
	s    *memStore
	txMu sync.Mutex
}

type memScope struct{ s *memStore }

func (sc *memScope) Appointments() appointment.TxRepository         { return &memAppointments{s: sc.s} }
func (sc *memScope) Doctors() doctor.Repository                     { return &memDoctors{s: sc.s} }
func (sc *memScope) ConsultationTypes() consultationtype.Repository { return &memTypes{s: sc.s} }

func (t *memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, scope service.TxScope) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()

	t.s.mu.Lock()
	snapAppts := make(map[uint]*appointment.Appointment, len(t.s.appts))
	for id, a := range t.s.appts {
		snapAppts[id] = cloneAppointment(a)
	}
	snapLinks := make(map[[2]uint]bool, len(t.s.links))
	for k, v := range t.s.links {
		snapLinks[k] = v
	}
	snapNextID := t.s.nextApptID
	t.s.mu.Unlock()

	if err := fn(ctx, &memScope{s: t.s}); err != nil {
		t.s.mu.Lock()
		t.s.appts = snapAppts
		t.s.links = snapLinks
		t.s.nextApptID = snapNextID
		t.s.mu.Unlock()
		return err
	}
	return nil
}

// --- collaborators ---

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []uint
	cancelled []uint
}

func (n *recordingNotifier) AppointmentBooked(a *appointment.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, a.ID)
}

func (n *recordingNotifier) AppointmentCancelled(a *appointment.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, a.ID)
}

func (n *recordingNotifier) bookedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.booked)
}

type memCache struct {
	mu          sync.Mutex
	entries     map[string][]string
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]string)}
}

func cacheKey(date string, doctorID uint) string {
	return fmt.Sprintf("%s:%d", date, doctorID)
}

func (c *memCache) Get(_ context.Context, date string, doctorID uint) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	times, ok := c.entries[cacheKey(date, doctorID)]
	return times, ok
}

func (c *memCache) Set(_ context.Context, date string, doctorID uint, times []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(date, doctorID)] = times
}

func (c *memCache) InvalidateDate(_ context.Context, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, date+":") {
			delete(c.entries, k)
		}
	}
	c.invalidated = append(c.invalidated, date)
}

// countingAppointments counts GetByID reads passing through the
// non-transactional repository handle.
type countingAppointments struct {
	appointment.Repository
	mu           sync.Mutex
	getByIDCalls int
}

func (c *countingAppointments) GetByID(ctx context.Context, id uint) (*appointment.Appointment, error) {
	c.mu.Lock()
	c.getByIDCalls++
	c.mu.Unlock()
	return c.Repository.GetByID(ctx, id)
}

func (c *countingAppointments) reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getByIDCalls
}

// failingAppointments wraps a repository and fails the query methods used
// by the availability resolver.
type failingAppointments struct {
	appointment.Repository
}

func (f *failingAppointments) OccupiedTimes(context.Context, string, uint, bool) ([]string, error) {
	return nil, fmt.Errorf("connection refused")
}
