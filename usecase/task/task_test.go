package task

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository/sqlite"
)

func newUseCase(t *testing.T) *UseCase {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlite.NewTaskRepository(db), nil, zaptest.NewLogger(t))
}

var alice = domain.Identity{UserID: "alice"}

func TestCreateTaskValidation(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		taskName string
		duration int
		priority domain.Priority
		wantCode domain.ErrorCode
	}{
		{"zero duration", "Read", 0, domain.PriorityLow, domain.ErrCodeInvalid},
		{"negative duration", "Read", -5, domain.PriorityLow, domain.ErrCodeInvalid},
		{"blank name", "   ", 25, domain.PriorityLow, domain.ErrCodeInvalid},
		{"unknown priority", "Read", 25, "urgent", domain.ErrCodeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateTask(ctx, alice, tt.taskName, tt.duration, tt.priority)
			if !domain.IsDomainError(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	if _, err := uc.CreateTask(ctx, domain.Identity{}, "Read", 25, ""); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous caller, got %v", err)
	}
}

func TestCreateTaskDefaultsPriority(t *testing.T) {
	uc := newUseCase(t)
	task, err := uc.CreateTask(context.Background(), alice, "  Write report ", 25, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Priority != domain.PriorityMedium {
		t.Fatalf("priority = %q, want medium", task.Priority)
	}
	if task.Name != "Write report" {
		t.Fatalf("name = %q, want trimmed", task.Name)
	}
	if task.ID == "" || task.UserID != alice.UserID {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestUpdateTask(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	task, err := uc.CreateTask(ctx, alice, "Read", 25, domain.PriorityLow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Read chapter 3"
	high := domain.PriorityHigh
	updated, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Name: &name, Priority: &high})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Priority != high || updated.Duration != 25 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	zero := 0
	if _, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Name: &name, Duration: &zero}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stored, err := uc.GetTask(ctx, alice, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Duration != 25 || stored.Name != name {
		t.Fatalf("rejected update leaked into store: %+v", stored)
	}

	empty := domain.Priority("")
	if _, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Priority: &empty}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected explicit empty priority to be rejected, got %v", err)
	}
	if stored, err = uc.GetTask(ctx, alice, task.ID); err != nil || stored.Priority != high {
		t.Fatalf("priority = %q (%v), want %q kept", stored.Priority, err, high)
	}

	bob := domain.Identity{UserID: "bob"}
	if _, err := uc.UpdateTask(ctx, bob, task.ID, domain.TaskPatch{Name: &name}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	task, err := uc.CreateTask(ctx, alice, "Read", 25, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := uc.DeleteTask(ctx, domain.Identity{UserID: "bob"}, task.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
	if err := uc.DeleteTask(ctx, alice, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := uc.GetTask(ctx, alice, task.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := uc.DeleteTask(ctx, alice, task.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListTasksIsScopedToOwner(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := uc.CreateTask(ctx, alice, name, 10, ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := uc.CreateTask(ctx, domain.Identity{UserID: "bob"}, "x", 10, ""); err != nil {
		t.Fatalf("create for bob: %v", err)
	}

	tasks, err := uc.ListTasks(ctx, alice, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.UserID != alice.UserID {
			t.Fatalf("foreign task leaked: %+v", task)
		}
	}

	page, err := uc.ListTasks(ctx, alice, 2, 2)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("got %d tasks on second page, want 1", len(page))
	}

	empty, err := uc.ListTasks(ctx, domain.Identity{UserID: "carol"}, 0, 0)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %v, %v", empty, err)
	}
}
