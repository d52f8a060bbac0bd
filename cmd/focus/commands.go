package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/internal/bootstrap"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/usecase/gate"
)

func (c *cli) newSignUpCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an account",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var displayName *string
			if cmd.Flags().Changed("name") {
				displayName = &name
			}
			return c.withApp(func(ctx context.Context, app *bootstrap.App) (interface{}, error) {
				return app.Auth.SignUp(ctx, email, password, displayName)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (at least 8 characters)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func (c *cli) newSignInCmd() *cobra.Command {
	var email, password string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Issue an access token",
		Long:  "Issue an access token. In text mode only the token is printed, so it can be exported as FOCUS_TOKEN.",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.withApp(func(ctx context.Context, app *bootstrap.App) (interface{}, error) {
				return app.Auth.SignIn(ctx, email, password, ttl)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_TTL)")
	return cmd
}

func (c *cli) newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke the current token",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.command(gate.CmdAuthSignOut, nil)
		},
	}
}

func (c *cli) newRefreshCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Extend the current token",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.command(gate.CmdAuthRefresh, gate.Refresh{TTLSeconds: int(ttl / time.Second)})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "new lifetime (default JWT_TTL)")
	return cmd
}

func (c *cli) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the token",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.query(gate.QryAuthMe, nil)
		},
	}
}

func (c *cli) newProfileCmd() *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Account profile"}

	profile.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the profile",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.query(gate.QryProfileGet, nil)
		},
	})

	var name string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the display name; an empty name clears it",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.command(gate.CmdProfileUpdate, gate.UpdateProfile{DisplayName: &name})
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name")
	profile.AddCommand(set)
	return profile
}

func (c *cli) newTaskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Task registry"}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.query(gate.QryTaskList, page(limit, offset))
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "page size (default 50, max 100)")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")

	var duration int
	var priority string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a task",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.command(gate.CmdTaskCreate, gate.CreateTask{
				Name:     args[0],
				Duration: duration,
				Priority: domain.Priority(priority),
			})
		},
	}
	add.Flags().IntVarP(&duration, "duration", "d", 25, "planned minutes")
	add.Flags().StringVarP(&priority, "priority", "p", "", "low|medium|high (default medium)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.query(gate.QryTaskGet, gate.ByID{ID: args[0]})
		},
	}

	var newName string
	var newDuration int
	var newPriority string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.TaskPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &newName
			}
			if cmd.Flags().Changed("duration") {
				patch.Duration = &newDuration
			}
			if cmd.Flags().Changed("priority") {
				p := domain.Priority(newPriority)
				patch.Priority = &p
			}
			return c.command(gate.CmdTaskUpdate, gate.UpdateTask{ID: args[0], TaskPatch: patch})
		},
	}
	update.Flags().StringVar(&newName, "name", "", "task name")
	update.Flags().IntVarP(&newDuration, "duration", "d", 0, "planned minutes")
	update.Flags().StringVarP(&newPriority, "priority", "p", "", "low|medium|high")

	remove := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task; sessions keep running without it",
		Args:    exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.command(gate.CmdTaskDelete, gate.ByID{ID: args[0]})
		},
	}

	task.AddCommand(list, add, get, update, remove)
	return task
}

func (c *cli) newSessionCmd() *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Focus sessions"}

	var taskID string
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a session",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			var payload gate.StartSession
			if taskID != "" {
				payload.TaskID = &taskID
			}
			return c.command(gate.CmdSessionStart, payload)
		},
	}
	start.Flags().StringVarP(&taskID, "task", "t", "", "task id to focus on")

	var abandon bool
	end := &cobra.Command{
		Use:   "end <id>",
		Short: "End a session as completed",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			completed := !abandon
			return c.command(gate.CmdSessionEnd, gate.EndSession{ID: args[0], Completed: &completed})
		},
	}
	end.Flags().BoolVar(&abandon, "abandon", false, "end without completing")

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.query(gate.QrySessionList, page(limit, offset))
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "page size (default 50, max 100)")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a session",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.query(gate.QrySessionGet, gate.ByID{ID: args[0]})
		},
	}

	active := &cobra.Command{
		Use:   "active",
		Short: "Show the running session",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.query(gate.QrySessionActive, nil)
		},
	}

	session.AddCommand(start, end, list, get, active)
	return session
}

func (c *cli) newProofCmd() *cobra.Command {
	proof := &cobra.Command{Use: "proof", Short: "Proof attachments"}

	attach := &cobra.Command{
		Use:   "attach <session> <ref>",
		Short: "Attach a stored reference",
		Args:  exactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.command(gate.CmdProofAttach, gate.ProofRef{SessionID: args[0], Ref: args[1]})
		},
	}

	var purge bool
	remove := &cobra.Command{
		Use:   "rm <session> <ref>",
		Short: "Remove a reference",
		Args:  exactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			name := gate.CmdProofRemove
			if purge {
				name = gate.CmdProofPurge
			}
			return c.command(name, gate.ProofRef{SessionID: args[0], Ref: args[1]})
		},
	}
	remove.Flags().BoolVar(&purge, "purge", false, "also delete the stored image")

	replace := &cobra.Command{
		Use:   "replace <session> [ref...]",
		Short: "Replace the whole reference list",
		Args:  minArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.command(gate.CmdProofReplace, gate.ReplaceProofs{SessionID: args[0], Refs: append([]string{}, args[1:]...)})
		},
	}

	var fileName, contentType string
	upload := &cobra.Command{
		Use:   "upload <session> <file>",
		Short: "Store an image and attach it",
		Args:  exactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return domain.WrapError(domain.ErrCodeInvalid, "read proof file", err)
			}
			if fileName == "" {
				fileName = filepath.Base(args[1])
			}
			if contentType == "" {
				contentType = http.DetectContentType(data)
			}
			return c.command(gate.CmdProofUpload, gate.UploadProof{
				SessionID:   args[0],
				Payload:     data,
				ContentType: contentType,
				FileName:    fileName,
			})
		},
	}
	upload.Flags().StringVar(&fileName, "name", "", "stored file name (default the file's base name)")
	upload.Flags().StringVar(&contentType, "type", "", "content type (default sniffed)")

	var dest string
	download := &cobra.Command{
		Use:   "get <ref>",
		Short: "Write a stored image to a file",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.withApp(func(ctx context.Context, app *bootstrap.App) (interface{}, error) {
				out, err := app.Gate.ExecuteQuery(ctx, c.token, gate.QryProofOpen, gate.OpenProof{Ref: args[0]})
				if err != nil {
					return nil, err
				}
				blob, ok := out.(*repository.Blob)
				if !ok {
					return nil, domain.ErrProofNotFound
				}
				target := dest
				if target == "" {
					target = filepath.Base(args[0])
				}
				if err := os.WriteFile(target, blob.Data, 0o644); err != nil {
					return nil, err
				}
				return savedFile{Path: target, ContentType: blob.ContentType, Size: len(blob.Data)}, nil
			})
		},
	}
	download.Flags().StringVar(&dest, "out", "", "destination path (default the ref's base name)")

	proof.AddCommand(attach, remove, replace, upload, download)
	return proof
}

func (c *cli) newStreakCmd() *cobra.Command {
	streak := &cobra.Command{
		Use:   "streak",
		Short: "Show the current streak",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.query(gate.QryStreakGet, nil)
		},
	}
	streak.AddCommand(&cobra.Command{
		Use:   "recompute",
		Short: "Rebuild the streak from session history",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return c.command(gate.CmdStreakRecompute, nil)
		},
	})
	return streak
}
