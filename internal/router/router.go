package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/focus/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Session *apiHandler.SessionHandler
	Proof   *apiHandler.ProofHandler
	Streak  *apiHandler.StreakHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Check)
	}

	// Public auth routes
	r.POST("/api/v1/auth/signup", handlers.Auth.SignUp)
	r.POST("/api/v1/auth/signin", handlers.Auth.SignIn)

	api := r.Group("/api/v1")
	protected := func(method, path string, h fasthttp.RequestHandler) {
		api.Handle(method, path, authMiddleware(h))
	}

	protected(fasthttp.MethodPost, "/auth/refresh", handlers.Auth.Refresh)
	protected(fasthttp.MethodPost, "/auth/signout", handlers.Auth.SignOut)
	protected(fasthttp.MethodGet, "/auth/me", handlers.Auth.Me)

	protected(fasthttp.MethodGet, "/profile", handlers.Profile.GetProfile)
	protected(fasthttp.MethodPatch, "/profile", handlers.Profile.UpdateProfile)
	protected(fasthttp.MethodPut, "/profile", handlers.Profile.UpdateProfile)

	protected(fasthttp.MethodGet, "/tasks", handlers.Task.GetTasks)
	protected(fasthttp.MethodPost, "/tasks", handlers.Task.CreateTask)
	protected(fasthttp.MethodGet, "/tasks/{id}", handlers.Task.GetTask)
	protected(fasthttp.MethodPatch, "/tasks/{id}", handlers.Task.UpdateTask)
	protected(fasthttp.MethodPut, "/tasks/{id}", handlers.Task.UpdateTask)
	protected(fasthttp.MethodDelete, "/tasks/{id}", handlers.Task.DeleteTask)

	protected(fasthttp.MethodGet, "/sessions", handlers.Session.GetSessions)
	protected(fasthttp.MethodPost, "/sessions", handlers.Session.StartSession)
	protected(fasthttp.MethodGet, "/sessions/active", handlers.Session.GetActiveSession)
	protected(fasthttp.MethodGet, "/sessions/{id}", handlers.Session.GetSession)
	protected(fasthttp.MethodPost, "/sessions/{id}/end", handlers.Session.EndSession)

	protected(fasthttp.MethodPost, "/sessions/{id}/proofs", handlers.Proof.AttachProof)
	protected(fasthttp.MethodPut, "/sessions/{id}/proofs", handlers.Proof.ReplaceProofs)
	protected(fasthttp.MethodDelete, "/sessions/{id}/proofs", handlers.Proof.RemoveProof)
	protected(fasthttp.MethodPost, "/sessions/{id}/proofs/upload", handlers.Proof.UploadProof)
	protected(fasthttp.MethodGet, "/proofs/{ref:*}", handlers.Proof.DownloadProof)

	protected(fasthttp.MethodGet, "/streak", handlers.Streak.GetStreak)
	protected(fasthttp.MethodPost, "/streak/recompute", handlers.Streak.Recompute)

	return r
}
