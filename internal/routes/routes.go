package routes

import (
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/app"
	"github.com/trakapp/trak/internal/handler"
	"github.com/trakapp/trak/internal/middleware"
)

func SetupRoutes(app *app.App, authLimiter *middleware.RateLimiter) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.PasswordResets)
	user := handler.NewUserHandler(app.UserService, app.AuthService, app.RewardService)
	commute := handler.NewCommuteHandler(app.CommuteService)
	challenge := handler.NewChallengeHandler(app.ChallengeService)
	reward := handler.NewRewardHandler(app.RewardService)
	leaderboard := handler.NewLeaderboardHandler(app.LeaderboardService)

	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(10, 15*time.Minute)
	}
	limit := middleware.Limit(authLimiter)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", app.Metrics.Handler())

	// ============================================================================
	// AUTH
	// ============================================================================

	mux.HandleFunc("GET /api/auth/csrf", auth.CSRF)
	mux.HandleFunc("POST /api/auth/signup", limit(auth.Signup))
	mux.HandleFunc("POST /api/auth/login", limit(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("POST /api/auth/password/forgot", limit(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/password/reset", limit(auth.ResetPassword))

	// ============================================================================
	// USER
	// ============================================================================

	mux.HandleFunc("GET /api/user/profile", middleware.RequireAuth(user.Profile))
	mux.HandleFunc("PATCH /api/user", middleware.RequireAuth(user.Update))
	mux.HandleFunc("POST /api/user/password", middleware.RequireAuth(user.ChangePassword))
	mux.HandleFunc("GET /api/user/stats", middleware.RequireSubject(user.Stats))
	mux.HandleFunc("GET /api/user/challenges", middleware.RequireSubject(challenge.UserChallenges))
	mux.HandleFunc("GET /api/user/redemptions", middleware.RequireSubject(user.Redemptions))

	// ============================================================================
	// COMMUTES
	// ============================================================================

	mux.HandleFunc("GET /api/commutes/current", middleware.RequireSubject(commute.Current))
	mux.HandleFunc("GET /api/commutes", middleware.RequireSubject(commute.History))
	mux.HandleFunc("POST /api/commutes", middleware.RequireSubject(commute.Create))
	mux.HandleFunc("POST /api/commutes/export", middleware.RequireSubject(commute.Export))

	// ============================================================================
	// CHALLENGES & REWARDS
	// ============================================================================

	mux.HandleFunc("GET /api/challenges", middleware.RequireSubject(challenge.List))
	mux.HandleFunc("POST /api/challenges", middleware.RequireSubject(challenge.Create))
	mux.HandleFunc("POST /api/challenges/{id}/join", middleware.RequireSubject(challenge.Join))

	mux.HandleFunc("GET /api/rewards", middleware.RequireSubject(reward.List))
	mux.HandleFunc("POST /api/rewards", middleware.RequireSubject(reward.Create))
	mux.HandleFunc("POST /api/rewards/{id}/redeem", middleware.RequireSubject(reward.Redeem))

	mux.HandleFunc("GET /api/leaderboard", middleware.RequireSubject(leaderboard.Leaderboard))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
		middleware.RequestLogging(app.Metrics), // innermost so r.Pattern is visible
	)

	return handler
}
