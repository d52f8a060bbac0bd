package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionRepositoryOneActivePerUser(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, &domain.FocusSession{UserID: "alice", StartTime: start})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, &domain.FocusSession{UserID: "alice", StartTime: start}); err != domain.ErrActiveSessionExists {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}
	if _, err := repo.Create(ctx, &domain.FocusSession{UserID: "bob", StartTime: start}); err != nil {
		t.Fatalf("other users are independent: %v", err)
	}

	closed, err := repo.Close(ctx, "alice", first.ID, start.Add(25*time.Minute), true)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status() != domain.SessionCompleted || !closed.EndTime.Equal(start.Add(25*time.Minute)) {
		t.Fatalf("unexpected closed session %+v", closed)
	}
	if _, err := repo.Close(ctx, "alice", first.ID, start.Add(time.Hour), false); err != domain.ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := repo.Close(ctx, "bob", first.ID, start.Add(time.Hour), false); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("closing another user's session must be not found, got %v", err)
	}

	if _, err := repo.Create(ctx, &domain.FocusSession{UserID: "alice", StartTime: start.Add(time.Hour)}); err != nil {
		t.Fatalf("a new session is allowed once the first ended: %v", err)
	}
}

func TestSessionRepositoryProofsAndHistory(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := repo.Create(ctx, &domain.FocusSession{UserID: "alice", StartTime: day.AddDate(0, 0, i)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Close(ctx, "alice", s.ID, s.StartTime.Add(time.Hour), i != 1); err != nil {
			t.Fatalf("close: %v", err)
		}
		ids = append(ids, s.ID)
	}

	updated, err := repo.UpdateProofs(ctx, "alice", ids[0], func(current []string) []string {
		return append(current, "proof_images/alice/a.jpg", "proof_images/alice/a.jpg")
	})
	if err != nil {
		t.Fatalf("update proofs: %v", err)
	}
	if len(updated.ProofPhotos) != 2 {
		t.Fatalf("duplicates must be kept: %v", updated.ProofPhotos)
	}
	if _, err := repo.UpdateProofs(ctx, "bob", ids[0], func(c []string) []string { return c }); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found for foreign session, got %v", err)
	}
	if _, err := repo.UpdateProofs(ctx, "alice", ids[2], func(current []string) []string {
		return append(current, "proof_images/alice/a.jpg", "proof_images/alice/b.jpg")
	}); err != nil {
		t.Fatalf("update proofs: %v", err)
	}
	for ref, want := range map[string]int{
		"proof_images/alice/a.jpg": 3,
		"proof_images/alice/b.jpg": 1,
		"proof_images/alice/c.jpg": 0,
	} {
		got, err := repo.CountProofRefs(ctx, "alice", ref)
		if err != nil || got != want {
			t.Fatalf("CountProofRefs(%s) = %d (%v), want %d", ref, got, err, want)
		}
	}
	if n, err := repo.CountProofRefs(ctx, "bob", "proof_images/alice/a.jpg"); err != nil || n != 0 {
		t.Fatalf("references are counted per user, got %d (%v)", n, err)
	}

	ends, err := repo.CompletedEndTimes(ctx, "alice")
	if err != nil {
		t.Fatalf("completed end times: %v", err)
	}
	if len(ends) != 2 {
		t.Fatalf("abandoned sessions must be excluded, got %v", ends)
	}

	list, err := repo.List(ctx, repository.SessionFilter{UserID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %v", list)
	}
	page, err := repo.List(ctx, repository.SessionFilter{UserID: "alice", Limit: 1, Offset: 1})
	if err != nil || len(page) != 1 || page[0].ID != ids[1] {
		t.Fatalf("unexpected page %v (%v)", page, err)
	}
}

func TestTaskDeleteClearsSessionReference(t *testing.T) {
	db := openTestDB(t)
	tasks := NewTaskRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	task, err := tasks.Create(ctx, &domain.Task{UserID: "alice", Name: "read", Duration: 25, Priority: domain.PriorityLow})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	s, err := sessions.Create(ctx, &domain.FocusSession{UserID: "alice", TaskID: &task.ID, StartTime: time.Now().UTC()})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := tasks.Delete(ctx, "bob", task.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("expected not found for foreign delete, got %v", err)
	}
	if err := tasks.Delete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := sessions.GetByID(ctx, "alice", s.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.TaskID != nil {
		t.Fatalf("task reference should be cleared, got %q", *got.TaskID)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{-1: 50, 0: 50, 10: 10, 100: 100, 500: 100} {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
