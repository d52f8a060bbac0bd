package gate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fastygo/focus/domain"
	authUC "github.com/fastygo/focus/usecase/auth"
	profileUC "github.com/fastygo/focus/usecase/profile"
	proofUC "github.com/fastygo/focus/usecase/proof"
	sessionUC "github.com/fastygo/focus/usecase/session"
	streakUC "github.com/fastygo/focus/usecase/streak"
	taskUC "github.com/fastygo/focus/usecase/task"
)

const (
	CmdTaskCreate      = "task.create"
	CmdTaskUpdate      = "task.update"
	CmdTaskDelete      = "task.delete"
	CmdSessionStart    = "session.start"
	CmdSessionEnd      = "session.end"
	CmdProofAttach     = "proof.attach"
	CmdProofRemove     = "proof.remove"
	CmdProofReplace    = "proof.replace"
	CmdProofUpload     = "proof.upload"
	CmdProofPurge      = "proof.purge"
	CmdStreakRecompute = "streak.recompute"
	CmdProfileUpdate   = "profile.update"
	CmdAuthSignOut     = "auth.signout"
	CmdAuthRefresh     = "auth.refresh"

	QryTaskList      = "task.list"
	QryTaskGet       = "task.get"
	QrySessionList   = "session.list"
	QrySessionGet    = "session.get"
	QrySessionActive = "session.active"
	QryProofOpen     = "proof.open"
	QryStreakGet     = "streak.get"
	QryProfileGet    = "profile.get"
	QryAuthMe        = "auth.me"
)

type CreateTask struct {
	Name     string          `json:"name"`
	Duration int             `json:"duration"`
	Priority domain.Priority `json:"priority"`
}

type UpdateTask struct {
	ID string `json:"id"`
	domain.TaskPatch
}

type ByID struct {
	ID string `json:"id"`
}

type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type StartSession struct {
	TaskID *string `json:"task_id"`
}

// EndSession ends as completed unless Completed is explicitly false.
type EndSession struct {
	ID        string `json:"id"`
	Completed *bool  `json:"completed"`
}

type ProofRef struct {
	SessionID string `json:"session_id"`
	Ref       string `json:"ref"`
}

type ReplaceProofs struct {
	SessionID string   `json:"session_id"`
	Refs      []string `json:"refs"`
}

type UploadProof struct {
	SessionID   string `json:"session_id"`
	Payload     []byte `json:"payload"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type OpenProof struct {
	Ref string `json:"ref"`
}

type UpdateProfile struct {
	DisplayName *string `json:"display_name"`
}

type Refresh struct {
	TTLSeconds int `json:"ttl"`
}

// Core bundles the use cases exposed through the gate.
type Core struct {
	Tasks    *taskUC.UseCase
	Sessions *sessionUC.UseCase
	Proofs   *proofUC.UseCase
	Streaks  *streakUC.UseCase
	Profiles *profileUC.UseCase
	Auth     *authUC.UseCase
}

// RegisterCore wires every core operation present in c.
func RegisterCore(g *Gate, c Core) {
	if uc := c.Tasks; uc != nil {
		g.RegisterCommand(CmdTaskCreate, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[CreateTask](payload)
			if err != nil {
				return nil, err
			}
			return uc.CreateTask(ctx, owner, req.Name, req.Duration, req.Priority)
		})
		g.RegisterCommand(CmdTaskUpdate, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[UpdateTask](payload)
			if err != nil {
				return nil, err
			}
			return uc.UpdateTask(ctx, owner, req.ID, req.TaskPatch)
		})
		g.RegisterCommand(CmdTaskDelete, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[ByID](payload)
			if err != nil {
				return nil, err
			}
			return nil, uc.DeleteTask(ctx, owner, req.ID)
		})
		g.RegisterQuery(QryTaskList, func(ctx context.Context, owner domain.Identity, params interface{}) (interface{}, error) {
			req, err := decode[Page](params)
			if err != nil {
				return nil, err
			}
			return uc.ListTasks(ctx, owner, req.Limit, req.Offset)
		})
		g.RegisterQuery(QryTaskGet, func(ctx context.Context, owner domain.Identity, params interface{}) (interface{}, error) {
			req, err := decode[ByID](params)
			if err != nil {
				return nil, err
			}
			return uc.GetTask(ctx, owner, req.ID)
		})
	}

	if uc := c.Sessions; uc != nil {
		g.RegisterCommand(CmdSessionStart, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[StartSession](payload)
			if err != nil {
				return nil, err
			}
			return uc.StartSession(ctx, owner, req.TaskID)
		})
		g.RegisterCommand(CmdSessionEnd, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[EndSession](payload)
			if err != nil {
				return nil, err
			}
			completed := req.Completed == nil || *req.Completed
			return uc.EndSession(ctx, owner, req.ID, completed)
		})
		g.RegisterQuery(QrySessionList, func(ctx context.Context, owner domain.Identity, params interface{}) (interface{}, error) {
			req, err := decode[Page](params)
			if err != nil {
				return nil, err
			}
			return uc.GetSessions(ctx, owner, req.Limit, req.Offset)
		})
		g.RegisterQuery(QrySessionGet, func(ctx context.Context, owner domain.Identity, params interface{}) (interface{}, error) {
			req, err := decode[ByID](params)
			if err != nil {
				return nil, err
			}
			return uc.GetSession(ctx, owner, req.ID)
		})
		g.RegisterQuery(QrySessionActive, func(ctx context.Context, owner domain.Identity, _ interface{}) (interface{}, error) {
			return uc.GetActiveSession(ctx, owner)
		})
	}

	if uc := c.Proofs; uc != nil {
		g.RegisterCommand(CmdProofAttach, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[ProofRef](payload)
			if err != nil {
				return nil, err
			}
			return uc.AttachProof(ctx, owner, req.SessionID, req.Ref)
		})
		g.RegisterCommand(CmdProofRemove, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[ProofRef](payload)
			if err != nil {
				return nil, err
			}
			return uc.RemoveProof(ctx, owner, req.SessionID, req.Ref)
		})
		g.RegisterCommand(CmdProofReplace, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[ReplaceProofs](payload)
			if err != nil {
				return nil, err
			}
			return uc.ReplaceProofs(ctx, owner, req.SessionID, req.Refs)
		})
		g.RegisterCommand(CmdProofUpload, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[UploadProof](payload)
			if err != nil {
				return nil, err
			}
			return uc.UploadProof(ctx, owner, req.SessionID, req.Payload, req.ContentType, req.FileName)
		})
		g.RegisterCommand(CmdProofPurge, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[ProofRef](payload)
			if err != nil {
				return nil, err
			}
			return uc.PurgeProof(ctx, owner, req.SessionID, req.Ref)
		})
		g.RegisterQuery(QryProofOpen, func(ctx context.Context, owner domain.Identity, params interface{}) (interface{}, error) {
			req, err := decode[OpenProof](params)
			if err != nil {
				return nil, err
			}
			return uc.OpenProof(ctx, owner, req.Ref)
		})
	}

	if uc := c.Streaks; uc != nil {
		g.RegisterCommand(CmdStreakRecompute, func(ctx context.Context, owner domain.Identity, _ interface{}) (interface{}, error) {
			return uc.RecomputeFor(ctx, owner)
		})
		g.RegisterQuery(QryStreakGet, func(ctx context.Context, owner domain.Identity, _ interface{}) (interface{}, error) {
			return uc.GetStreak(ctx, owner)
		})
	}

	if uc := c.Profiles; uc != nil {
		g.RegisterCommand(CmdProfileUpdate, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[UpdateProfile](payload)
			if err != nil {
				return nil, err
			}
			return uc.UpdateProfile(ctx, owner, req.DisplayName)
		})
		g.RegisterQuery(QryProfileGet, func(ctx context.Context, owner domain.Identity, _ interface{}) (interface{}, error) {
			return uc.GetProfile(ctx, owner)
		})
	}

	if uc := c.Auth; uc != nil {
		g.RegisterCommand(CmdAuthSignOut, func(ctx context.Context, owner domain.Identity, _ interface{}) (interface{}, error) {
			return nil, uc.SignOut(ctx, owner)
		})
		g.RegisterCommand(CmdAuthRefresh, func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error) {
			req, err := decode[Refresh](payload)
			if err != nil {
				return nil, err
			}
			return uc.Refresh(ctx, owner, time.Duration(req.TTLSeconds)*time.Second)
		})
		g.RegisterQuery(QryAuthMe, func(_ context.Context, owner domain.Identity, _ interface{}) (interface{}, error) {
			return owner, nil
		})
	}
}

// decode accepts T, *T, nil, or a raw JSON document.
func decode[T any](payload interface{}) (T, error) {
	var zero T
	switch v := payload.(type) {
	case nil:
		return zero, nil
	case T:
		return v, nil
	case *T:
		if v == nil {
			return zero, nil
		}
		return *v, nil
	case json.RawMessage:
		return decodeJSON[T](v)
	case []byte:
		return decodeJSON[T](v)
	default:
		return zero, domain.ErrInvalidPayload
	}
}

func decodeJSON[T any](raw []byte) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	return out, nil
}
