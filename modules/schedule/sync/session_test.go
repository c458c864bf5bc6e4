package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"testing"

	"schedule-board/core/errors"
	"schedule-board/core/utils"
	"schedule-board/modules/schedule/entity"
	"schedule-board/modules/schedule/feed"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWeek = "2026-01-05"

var testOrg = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// fakeRemote is an in-memory RemoteStore with the same error contract as the
// Postgres implementation.
type fakeRemote struct {
	mu     gosync.Mutex
	byID   map[string]entity.ScheduleEntry
	nextID int

	insertErr error
	updateErr error
	deleteErr error
	listErr   error

	insertCalls int
	updateCalls int
	deleteCalls int
	listCalls   int

	lastInserted entity.ScheduleEntry
	lastUpdateID string

	onInsert func()
}

func newFakeRemote(seed ...entity.ScheduleEntry) *fakeRemote {
	r := &fakeRemote{byID: make(map[string]entity.ScheduleEntry)}
	for _, e := range seed {
		r.byID[e.ID] = e
	}
	return r
}

func (r *fakeRemote) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertCalls + r.updateCalls + r.deleteCalls + r.listCalls
}

func (r *fakeRemote) occupant(week string, day, slot int) (entity.ScheduleEntry, bool) {
	for _, e := range r.byID {
		if e.WeekStartDate == week && e.DayOfWeek == day && e.TimeSlotIndex == slot {
			return e, true
		}
	}
	return entity.ScheduleEntry{}, false
}

func (r *fakeRemote) ListWeek(_ context.Context, _ uuid.UUID, week string) ([]entity.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []entity.ScheduleEntry
	for _, e := range r.byID {
		if e.WeekStartDate == week {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRemote) Insert(_ context.Context, e *entity.ScheduleEntry) (*entity.ScheduleEntry, error) {
	r.mu.Lock()
	r.insertCalls++
	r.lastInserted = *e
	hook := r.onInsert
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	if occ, ok := r.occupant(e.WeekStartDate, e.DayOfWeek, e.TimeSlotIndex); ok {
		return nil, errors.NewAppError(errors.ErrPositionConflict,
			"slot already occupied by "+occ.CourseTitle+"; update or resize it instead", nil)
	}

	persisted := *e
	r.nextID++
	persisted.ID = fmt.Sprintf("srv-%d", r.nextID)
	persisted.Version = 1
	r.byID[persisted.ID] = persisted
	out := persisted
	return &out, nil
}

func (r *fakeRemote) UpdateByID(_ context.Context, id string, e *entity.ScheduleEntry, expectedVersion int) (*entity.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	r.lastUpdateID = id
	if r.updateErr != nil {
		return nil, r.updateErr
	}

	stored, ok := r.byID[id]
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "schedule entry not found", nil)
	}
	if stored.Version != expectedVersion {
		return nil, errors.NewAppError(errors.ErrStaleVersion, "the schedule was modified by another user", nil)
	}

	updated := *e
	updated.ID = id
	updated.Version = stored.Version + 1
	r.byID[id] = updated
	out := updated
	return &out, nil
}

func (r *fakeRemote) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.byID, id)
	return nil
}

// fakeFeed delivers events synchronously from the test goroutine.
type fakeFeed struct {
	cb         feed.Callbacks
	subscribed bool
	closed     bool
}

func (f *fakeFeed) Subscribe(_ context.Context, _ uuid.UUID, cb feed.Callbacks) (feed.Subscription, error) {
	f.cb = cb
	f.subscribed = true
	if cb.OnStateChange != nil {
		cb.OnStateChange(feed.StateLive, nil)
	}
	return f, nil
}

func (f *fakeFeed) Close() error {
	f.closed = true
	if f.cb.OnStateChange != nil {
		f.cb.OnStateChange(feed.StateUnsubscribed, nil)
	}
	return nil
}

func (f *fakeFeed) Emit(ev feed.Event) {
	if f.cb.OnEvent != nil {
		f.cb.OnEvent(ev)
	}
}

type fakeNotifier struct {
	mu    gosync.Mutex
	sent  []Notification
	kinds []string
}

func (n *fakeNotifier) Notify(_ context.Context, notif Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notif)
	n.kinds = append(n.kinds, notif.Kind)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func startSession(t *testing.T, remote *fakeRemote) (*Session, *fakeFeed, *fakeNotifier) {
	t.Helper()
	f := &fakeFeed{}
	n := &fakeNotifier{}
	s, err := NewSession(remote, f, n, Options{
		OrganizationID: testOrg,
		WeekStartDate:  testWeek,
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s, f, n
}

func seeded(id string, day, slot int, title string, version int) entity.ScheduleEntry {
	return entity.ScheduleEntry{
		ID:             id,
		OrganizationID: testOrg,
		WeekStartDate:  testWeek,
		DayOfWeek:      day,
		TimeSlotIndex:  slot,
		DurationSlots:  1,
		CourseTitle:    title,
		Version:        version,
	}
}

func TestSession_ValidationGate(t *testing.T) {
	remote := newFakeRemote()
	s, _, _ := startSession(t, remote)
	callsAfterStart := remote.calls()

	_, err := s.AddSchedule(context.Background(), 7, 2, Candidate{CourseTitle: "Algebra"})
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrInvalidDay, err.Code)

	_, err = s.AddSchedule(context.Background(), 1, -1, Candidate{CourseTitle: "Algebra"})
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrInvalidSlot, err.Code)
	assert.Contains(t, err.Message, "slots 0-12")

	assert.Equal(t, callsAfterStart, remote.calls(), "validation errors must never reach the remote")
	assert.Equal(t, 0, len(s.Schedules()))
}

func TestSession_SimpleInsert(t *testing.T) {
	remote := newFakeRemote()
	s, _, n := startSession(t, remote)

	confirmed, err := s.AddSchedule(context.Background(), 1, 2, Candidate{
		CourseTitle:    "Algebra",
		InstructorName: "A. Lee",
	})
	require.Nil(t, err)
	require.NotNil(t, confirmed)

	assert.Equal(t, 1, remote.insertCalls)
	assert.Equal(t, 1, remote.lastInserted.DayOfWeek)
	assert.Equal(t, 2, remote.lastInserted.TimeSlotIndex)

	snap := s.Schedules()
	require.Len(t, snap, 1)
	got := snap[entity.PositionKey(1, 2)]
	assert.Equal(t, "Algebra", got.CourseTitle)
	assert.Equal(t, "A. Lee", got.InstructorName)
	assert.True(t, got.IsPersisted())
	assert.Equal(t, 1, n.count())
	assert.Equal(t, NotifySuccess, n.kinds[0])
}

func TestSession_OptimisticApplyBeforeConfirm(t *testing.T) {
	remote := newFakeRemote()
	s, _, _ := startSession(t, remote)

	var sawOptimistic, sawTempID bool
	remote.onInsert = func() {
		e, ok := s.GetSchedule(4, 3)
		sawOptimistic = ok
		sawTempID = ok && utils.IsTempID(e.ID)
	}

	_, err := s.AddSchedule(context.Background(), 4, 3, Candidate{CourseTitle: "Chemistry"})
	require.Nil(t, err)
	assert.True(t, sawOptimistic, "store must reflect the change before the remote call returns")
	assert.True(t, sawTempID, "optimistic insert must carry a temporary id")
}

func TestSession_InsertRollbackOnFailure(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 0, 1, "History", 1))
	s, _, n := startSession(t, remote)
	before := s.Schedules()

	remote.insertErr = fmt.Errorf("connection reset")
	_, err := s.AddSchedule(context.Background(), 5, 5, Candidate{CourseTitle: "Physics"})
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrPersistence, err.Code)

	assert.Equal(t, before, s.Schedules(), "failed insert must leave the store exactly as it was")
	assert.Equal(t, NotifyError, n.kinds[len(n.kinds)-1])
}

func TestSession_UpdateRollbackOnFailure(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 2, 3, "History", 1))
	s, _, _ := startSession(t, remote)
	before := s.Schedules()

	remote.updateErr = fmt.Errorf("connection reset")
	_, err := s.AddSchedule(context.Background(), 2, 3, Candidate{CourseTitle: "Geography"})
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrPersistence, err.Code)
	assert.Equal(t, before, s.Schedules())
}

func TestSession_OccupiedCellResolvesAsUpdate(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 2, 3, "History", 1))
	s, _, _ := startSession(t, remote)

	confirmed, err := s.AddSchedule(context.Background(), 2, 3, Candidate{CourseTitle: "Geography"})
	require.Nil(t, err)

	assert.Equal(t, 0, remote.insertCalls, "landing on an occupied cell is an update, not an insert")
	assert.Equal(t, 1, remote.updateCalls)
	assert.Equal(t, "real-1", remote.lastUpdateID)
	assert.Equal(t, "real-1", confirmed.ID)
	assert.Equal(t, 2, confirmed.Version)
	assert.Len(t, s.Schedules(), 1)
}

func TestSession_GenuineConflictRollsBackLoser(t *testing.T) {
	remote := newFakeRemote()

	first, _, _ := startSession(t, remote)
	second, _, _ := startSession(t, remote)

	_, err := first.AddSchedule(context.Background(), 0, 0, Candidate{CourseTitle: "Algebra"})
	require.Nil(t, err)

	_, err = second.AddSchedule(context.Background(), 0, 0, Candidate{CourseTitle: "Biology"})
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrPositionConflict, err.Code)
	assert.Contains(t, err.Message, "Algebra", "conflict error names the occupying course")

	assert.False(t, second.HasSchedule(0, 0), "loser's optimistic write must roll back")
	assert.True(t, first.HasSchedule(0, 0))
}

func TestSession_StaleVersionTriggersReload(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 1, 1, "History", 3))
	s, _, _ := startSession(t, remote)

	// Another client already advanced the row; this session still sees v3
	// but the remote rejects the expected version.
	remote.updateErr = errors.NewAppError(errors.ErrStaleVersion, "the schedule was modified by another user", nil)
	listCallsBefore := remote.listCalls

	_, err := s.AddSchedule(context.Background(), 1, 1, Candidate{CourseTitle: "History II"})
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrStaleVersion, err.Code)
	assert.Equal(t, listCallsBefore+1, remote.listCalls, "stale version must trigger a full reload")

	got, ok := s.GetSchedule(1, 1)
	require.True(t, ok)
	assert.Equal(t, "History", got.CourseTitle, "store reconverges with server truth")
}

func TestSession_DeleteIsIdempotent(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 3, 4, "History", 1))
	s, _, _ := startSession(t, remote)

	require.Nil(t, s.RemoveSchedule(context.Background(), 3, 4))
	assert.Equal(t, 1, remote.deleteCalls)
	before := s.Schedules()

	require.Nil(t, s.RemoveSchedule(context.Background(), 3, 4), "second delete is a no-op")
	assert.Equal(t, 1, remote.deleteCalls)
	assert.Equal(t, before, s.Schedules())
}

func TestSession_DeleteRollbackOnFailure(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 3, 4, "History", 1))
	s, _, _ := startSession(t, remote)
	before := s.Schedules()

	remote.deleteErr = fmt.Errorf("connection reset")
	err := s.RemoveSchedule(context.Background(), 3, 4)
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrPersistence, err.Code)
	assert.Equal(t, before, s.Schedules(), "failed delete must restore the removed entry")
}

func TestSession_MoveViaDeleteAndInsert(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 3, 4, "Algebra", 1))
	s, _, _ := startSession(t, remote)

	require.Nil(t, s.RemoveSchedule(context.Background(), 3, 4))
	_, err := s.AddSchedule(context.Background(), 3, 5, Candidate{CourseTitle: "Algebra"})
	require.Nil(t, err)

	assert.False(t, s.HasSchedule(3, 4))
	assert.True(t, s.HasSchedule(3, 5))
	assert.Len(t, s.Schedules(), 1)
}

func TestSession_EchoIdempotence(t *testing.T) {
	remote := newFakeRemote()
	s, f, _ := startSession(t, remote)

	confirmed, err := s.AddSchedule(context.Background(), 1, 2, Candidate{CourseTitle: "Algebra"})
	require.Nil(t, err)
	before := s.Schedules()

	echo := *confirmed
	f.Emit(feed.Event{Kind: feed.KindInsert, Record: &echo})
	assert.Equal(t, before, s.Schedules(), "self-echo must not change the store")
}

func TestSession_WeekIsolation(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 1, 1, "History", 1))
	s, f, _ := startSession(t, remote)
	before := s.Schedules()

	other := seeded("other-week", 1, 1, "Intruder", 1)
	other.WeekStartDate = "2026-01-12"
	f.Emit(feed.Event{Kind: feed.KindInsert, Record: &other})
	f.Emit(feed.Event{Kind: feed.KindDelete, OldRecord: &other})

	assert.Equal(t, before, s.Schedules(), "events for other weeks never touch the store")
}

func TestSession_FeedInsertSupersedesOptimism(t *testing.T) {
	remote := newFakeRemote()
	s, f, _ := startSession(t, remote)

	// Simulate an in-flight mutation: optimistic entry plus ledger record.
	s.mu.Lock()
	s.store.Upsert(seeded(utils.NewTempID(), 2, 2, "Pending", 1))
	s.ledger.record("tmp-x", nil, true)
	s.mu.Unlock()

	confirmed := seeded("srv-9", 2, 2, "Confirmed", 1)
	f.Emit(feed.Event{Kind: feed.KindInsert, Record: &confirmed})

	got, ok := s.GetSchedule(2, 2)
	require.True(t, ok)
	assert.Equal(t, "srv-9", got.ID, "confirmed event overwrites the optimistic placeholder")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.ledger.len(), "any confirmed event clears all pending optimism")
}

func TestSession_FeedUpdateMergesAndIgnoresUnknown(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 1, 1, "History", 1))
	s, f, _ := startSession(t, remote)

	// Local-only display tag survives a wire update that lacks it.
	s.mu.Lock()
	tagged, _ := s.store.Get(1, 1)
	tagged.ColorTag = "amber"
	s.store.Upsert(tagged)
	s.mu.Unlock()

	updated := seeded("real-1", 1, 1, "History II", 2)
	f.Emit(feed.Event{Kind: feed.KindUpdate, Record: &updated, OldRecord: &tagged})

	got, ok := s.GetSchedule(1, 1)
	require.True(t, ok)
	assert.Equal(t, "History II", got.CourseTitle)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "amber", got.ColorTag)

	// Updates for unoccupied positions are ignored, not resurrected.
	ghost := seeded("ghost", 6, 6, "Ghost", 1)
	f.Emit(feed.Event{Kind: feed.KindUpdate, Record: &ghost, OldRecord: &ghost})
	assert.False(t, s.HasSchedule(6, 6))
}

func TestSession_FeedUpdateMovesCell(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 1, 1, "History", 1))
	s, f, _ := startSession(t, remote)

	old := seeded("real-1", 1, 1, "History", 1)
	moved := seeded("real-1", 1, 4, "History", 2)
	f.Emit(feed.Event{Kind: feed.KindUpdate, Record: &moved, OldRecord: &old})

	assert.False(t, s.HasSchedule(1, 1), "stale image at the old cell is dropped")
	got, ok := s.GetSchedule(1, 4)
	require.True(t, ok)
	assert.Equal(t, "real-1", got.ID)
}

func TestSession_FeedDeleteRemoves(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 1, 1, "History", 1))
	s, f, _ := startSession(t, remote)

	old := seeded("real-1", 1, 1, "History", 1)
	f.Emit(feed.Event{Kind: feed.KindDelete, OldRecord: &old})
	assert.False(t, s.HasSchedule(1, 1))
}

func TestSession_LoadFailureKeepsLastKnownGood(t *testing.T) {
	remote := newFakeRemote(seeded("real-1", 1, 1, "History", 1))
	s, _, n := startSession(t, remote)
	before := s.Schedules()
	require.Len(t, before, 1)

	remote.listErr = fmt.Errorf("connection reset")
	err := s.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLoadFailed))

	assert.Equal(t, before, s.Schedules(), "failed reload keeps the last-known-good store")
	assert.Error(t, s.Err())
	assert.Equal(t, NotifyError, n.kinds[len(n.kinds)-1])
	assert.False(t, s.Loading())
}

func TestSession_ConnectionStateLifecycle(t *testing.T) {
	remote := newFakeRemote()
	f := &fakeFeed{}
	s, err := NewSession(remote, f, nil, Options{OrganizationID: testOrg, WeekStartDate: testWeek})
	require.NoError(t, err)
	assert.False(t, s.IsConnected())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsConnected())
	assert.True(t, f.subscribed)

	s.Close()
	assert.True(t, f.closed)
	assert.False(t, s.IsConnected())
	assert.Equal(t, feed.StateUnsubscribed, s.FeedState())
}

func TestSession_PositionUniquenessInvariant(t *testing.T) {
	remote := newFakeRemote()
	s, _, _ := startSession(t, remote)

	// A burst of successful mutations across the grid.
	for day := 0; day < 3; day++ {
		for slot := 0; slot < 4; slot++ {
			_, err := s.AddSchedule(context.Background(), day, slot, Candidate{CourseTitle: "C"})
			require.Nil(t, err)
		}
	}
	// Re-place over existing cells.
	for day := 0; day < 3; day++ {
		_, err := s.AddSchedule(context.Background(), day, 0, Candidate{CourseTitle: "C2"})
		require.Nil(t, err)
	}

	snap := s.Schedules()
	assert.Len(t, snap, 12)
	seen := map[string]bool{}
	for key, e := range snap {
		assert.Equal(t, key, e.Position())
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestSession_RejectsBadWeekStart(t *testing.T) {
	_, err := NewSession(newFakeRemote(), &fakeFeed{}, nil, Options{
		OrganizationID: testOrg,
		WeekStartDate:  "2026-01-06",
	})
	require.Error(t, err)
}

func TestSession_ConfiguredSlotRange(t *testing.T) {
	remote := newFakeRemote()
	f := &fakeFeed{}
	s, err := NewSession(remote, f, nil, Options{
		OrganizationID: testOrg,
		WeekStartDate:  testWeek,
		MaxSlotIndex:   6,
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	_, appErr := s.AddSchedule(context.Background(), 1, 7, Candidate{CourseTitle: "Late"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidSlot, appErr.Code)
	assert.Contains(t, appErr.Message, "slots 0-6")

	_, appErr = s.AddSchedule(context.Background(), 1, 6, Candidate{CourseTitle: "On time"})
	assert.Nil(t, appErr)
}
