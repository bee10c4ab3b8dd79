package routes

import (
	"net/http"

	"github.com/filesmanager/filesmanager/internal/app"
	"github.com/filesmanager/filesmanager/internal/handler"
	"github.com/filesmanager/filesmanager/internal/middleware"
)

// SetupRoutes returns the API handler. The rate limiter is returned so the
// caller can stop it on shutdown.
func SetupRoutes(app *app.App) (http.Handler, *middleware.RateLimiter) {
	// Handlers
	status := handler.NewAppHandler(app.AppService)
	users := handler.NewUserHandler(app.UserService)
	auth := handler.NewAuthHandler(app.AuthService)
	files := handler.NewFileHandler(app.FileService, app.Cfg.UploadMaxBytes)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /status", status.Status)
	mux.HandleFunc("GET /stats", status.Stats)

	mux.HandleFunc("POST /users", users.Create)

	// Credential checks are rate limited per IP
	limiter := middleware.NewRateLimiter(app.Cfg.ConnectRateLimit, app.Cfg.ConnectRateWindow).
		TrustProxyHeaders(app.Cfg.TrustProxyHeaders)
	mux.HandleFunc("GET /connect", middleware.RateLimit(limiter)(auth.Connect))

	// Public files are readable without a token
	mux.HandleFunc("GET /files/{id}/data", files.Data)

	// ============================================================================
	// PROTECTED ROUTES (X-Token)
	// ============================================================================

	mux.HandleFunc("GET /users/me", middleware.RequireAuth(users.Me))
	mux.HandleFunc("GET /disconnect", middleware.RequireAuth(auth.Disconnect))

	mux.HandleFunc("POST /files", middleware.RequireAuth(files.Upload))
	mux.HandleFunc("GET /files", middleware.RequireAuth(files.Index))
	mux.HandleFunc("GET /files/{id}", middleware.RequireAuth(files.Show))
	mux.HandleFunc("PUT /files/{id}/publish", middleware.RequireAuth(files.Publish))
	mux.HandleFunc("PUT /files/{id}/unpublish", middleware.RequireAuth(files.Unpublish))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Recover,
		middleware.Auth(app.AuthService),
	)

	return handler, limiter
}
