package admin

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/reliktarte/catalog-service/app/api"
	"github.com/reliktarte/catalog-service/importer"
	"go.uber.org/zap"
)

// TokenHeader carries the admin token.
const TokenHeader = "X-Admin-Token"

type ImportRunner interface {
	StartSync() (string, error)
	StartReset() (string, error)
	Status() importer.Status
	Clear() error
}

type StartResponse struct {
	Status string        `json:"status"`
	RunID  string        `json:"run_id"`
	Mode   importer.Mode `json:"mode"`
}

type AdminHandler struct {
	runner ImportRunner
	token  string
	logger *zap.Logger
}

// NewAdminHandler builds the import endpoints. An empty token leaves them
// open.
func NewAdminHandler(runner ImportRunner, token string, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{runner: runner, token: token, logger: logger}
}

func (h *AdminHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.runner.Status())
}

func (h *AdminHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	h.start(w, importer.ModeUpsert, h.runner.StartSync)
}

func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.start(w, importer.ModeReset, h.runner.StartReset)
}

func (h *AdminHandler) start(w http.ResponseWriter, mode importer.Mode, start func() (string, error)) {
	runID, err := start()
	if err != nil {
		if errors.Is(err, importer.ErrAlreadyRunning) {
			api.WriteError(w, http.StatusConflict, "Import already running")
			return
		}
		h.logger.Error("start import", zap.String("mode", string(mode)), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to start import")
		return
	}
	h.logger.Info("import requested", zap.String("mode", string(mode)), zap.String("run_id", runID))
	api.WriteJSON(w, http.StatusOK, StartResponse{Status: "started", RunID: runID, Mode: mode})
}

func (h *AdminHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Clear(); err != nil {
		if errors.Is(err, importer.ErrAlreadyRunning) {
			api.WriteError(w, http.StatusConflict, "Import already running")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "Failed to clear import status")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// RequireToken rejects requests without the configured token.
func (h *AdminHandler) RequireToken(next http.Handler) http.Handler {
	if h.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(TokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			api.WriteError(w, http.StatusUnauthorized, "Invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /admin/import-status", h.RequireToken(http.HandlerFunc(h.HandleStatus)))
	mux.Handle("POST /admin/import-catalog", h.RequireToken(http.HandlerFunc(h.HandleImport)))
	mux.Handle("POST /admin/reset-catalog", h.RequireToken(http.HandlerFunc(h.HandleReset)))
	mux.Handle("POST /admin/clear-import-status", h.RequireToken(http.HandlerFunc(h.HandleClear)))
}
