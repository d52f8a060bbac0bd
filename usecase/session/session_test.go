package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/repository/sqlite"
)

type fakeBuffer struct {
	mu      sync.Mutex
	streaks []string
	blobs   []string
	err     error
}

func (b *fakeBuffer) BufferStreakRecompute(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.streaks = append(b.streaks, userID)
	return nil
}

func (b *fakeBuffer) BufferBlobDelete(_ context.Context, _ string, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs = append(b.blobs, ref)
	return b.err
}

type fixture struct {
	uc     *UseCase
	tasks  repository.TaskRepository
	buffer *fakeBuffer
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		tasks:  sqlite.NewTaskRepository(db),
		buffer: &fakeBuffer{},
		now:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	clk := clock.Func(func() time.Time { return f.now })
	f.uc = New(sqlite.NewSessionRepository(db), f.tasks, f.buffer, clk, zaptest.NewLogger(t))
	return f
}

var alice = domain.Identity{UserID: "alice"}

func TestStartAndEndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	started, err := f.uc.StartSession(ctx, alice, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status() != domain.SessionActive || started.EndTime != nil {
		t.Fatalf("new session should be active: %+v", started)
	}
	if len(started.ProofPhotos) != 0 {
		t.Fatalf("new session should have no proofs: %v", started.ProofPhotos)
	}

	active, err := f.uc.GetActiveSession(ctx, alice)
	if err != nil || active.ID != started.ID {
		t.Fatalf("active = %v, %v; want %s", active, err, started.ID)
	}

	f.now = f.now.Add(25 * time.Minute)
	ended, err := f.uc.EndSession(ctx, alice, started.ID, true)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status() != domain.SessionCompleted || !ended.Completed {
		t.Fatalf("session should be completed: %+v", ended)
	}
	if ended.EndTime == nil || !ended.EndTime.Equal(f.now) {
		t.Fatalf("end time = %v, want %v", ended.EndTime, f.now)
	}
	if len(f.buffer.streaks) != 1 || f.buffer.streaks[0] != alice.UserID {
		t.Fatalf("expected one streak recompute for alice, got %v", f.buffer.streaks)
	}

	if _, err := f.uc.GetActiveSession(ctx, alice); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected no active session, got %v", err)
	}
}

func TestEndSessionTwiceIsStateError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	started, err := f.uc.StartSession(ctx, alice, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.uc.EndSession(ctx, alice, started.ID, false); err != nil {
		t.Fatalf("first end: %v", err)
	}
	if _, err := f.uc.EndSession(ctx, alice, started.ID, true); !domain.IsDomainError(err, domain.ErrCodeState) {
		t.Fatalf("expected state error, got %v", err)
	}
	stored, err := f.uc.GetSession(ctx, alice, started.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status() != domain.SessionAbandoned {
		t.Fatalf("terminal state changed: %s", stored.Status())
	}
	if len(f.buffer.streaks) != 0 {
		t.Fatalf("abandoned session must not schedule a recompute: %v", f.buffer.streaks)
	}
}

func TestStartSessionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.uc.StartSession(ctx, alice, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.uc.StartSession(ctx, alice, nil); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.uc.StartSession(ctx, domain.Identity{UserID: "bob"}, nil); err != nil {
		t.Fatalf("another user must be able to start: %v", err)
	}
}

func TestConcurrentStartYieldsOneSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.StartSession(ctx, alice, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domain.IsDomainError(err, domain.ErrCodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != racers-1 {
		t.Fatalf("successes = %d, conflicts = %d", successes, conflicts)
	}
}

func TestConcurrentEndYieldsOneSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	started, err := f.uc.StartSession(ctx, alice, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, late int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.EndSession(ctx, alice, started.ID, true)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.IsDomainError(err, domain.ErrCodeState):
				late++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || late != 3 {
		t.Fatalf("ok = %d, state errors = %d", ok, late)
	}
}

func TestStartSessionWithTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, &domain.Task{UserID: "bob", Name: "Bob's task", Duration: 30, Priority: domain.PriorityLow})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := f.uc.StartSession(ctx, alice, &task.ID); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error for foreign task, got %v", err)
	}
	missing := "missing"
	if _, err := f.uc.StartSession(ctx, alice, &missing); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error for unknown task, got %v", err)
	}

	own, err := f.tasks.Create(ctx, &domain.Task{UserID: alice.UserID, Name: "Read", Duration: 30, Priority: domain.PriorityLow})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	started, err := f.uc.StartSession(ctx, alice, &own.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.TaskID == nil || *started.TaskID != own.ID {
		t.Fatalf("task id = %v, want %s", started.TaskID, own.ID)
	}

	if err := f.tasks.Delete(ctx, alice.UserID, own.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	stored, err := f.uc.GetSession(ctx, alice, started.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.TaskID != nil {
		t.Fatalf("task reference should be cleared, got %q", *stored.TaskID)
	}
	if stored.Status() != domain.SessionActive {
		t.Fatalf("session should still be active, got %s", stored.Status())
	}
}

func TestEndSessionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.uc.EndSession(ctx, alice, "missing", true); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	started, err := f.uc.StartSession(ctx, alice, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.uc.EndSession(ctx, domain.Identity{UserID: "bob"}, started.ID, true); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}

	f.now = f.now.Add(-time.Minute)
	if _, err := f.uc.EndSession(ctx, alice, started.ID, true); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error for end before start, got %v", err)
	}
}

func TestEndSessionSurvivesBufferFailure(t *testing.T) {
	f := newFixture(t)
	f.buffer.err = errors.New("bolt unavailable")
	ctx := context.Background()

	started, err := f.uc.StartSession(ctx, alice, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ended, err := f.uc.EndSession(ctx, alice, started.ID, true)
	if err != nil {
		t.Fatalf("end must not fail on side-effect error: %v", err)
	}
	if ended.Status() != domain.SessionCompleted {
		t.Fatalf("status = %s, want completed", ended.Status())
	}
}

func TestGetSessionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := f.uc.StartSession(ctx, alice, nil)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		f.now = f.now.Add(10 * time.Minute)
		if _, err := f.uc.EndSession(ctx, alice, s.ID, i%2 == 0); err != nil {
			t.Fatalf("end %d: %v", i, err)
		}
		f.now = f.now.Add(time.Minute)
		ids = append(ids, s.ID)
	}

	sessions, err := f.uc.GetSessions(ctx, alice, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	for i, s := range sessions {
		if want := ids[len(ids)-1-i]; s.ID != want {
			t.Fatalf("position %d = %s, want %s", i, s.ID, want)
		}
	}

	empty, err := f.uc.GetSessions(ctx, domain.Identity{UserID: "bob"}, 0, 0)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %v, %v", empty, err)
	}
}
