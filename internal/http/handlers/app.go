package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/credits"
	"server/internal/domain"
	"server/internal/events"
	"server/internal/generate"
	"server/internal/history"
	"server/internal/middleware"
	"server/internal/webhook"
)

type App struct {
	Service *generate.Service
	Ledger  *credits.Ledger
	History history.Store
	Hub     *events.Hub
	Logger  zerolog.Logger
}

func NewApp(svc *generate.Service, ledger *credits.Ledger, hist history.Store, hub *events.Hub, logger zerolog.Logger) *App {
	return &App{Service: svc, Ledger: ledger, History: hist, Hub: hub, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// serviceError maps a generation error to its HTTP shape, with the
// user-facing sentence localized per the request.
func (a *App) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	msg := webhook.UserMessage(locale, err)

	switch {
	case errors.Is(err, domain.ErrEmptyPrompt):
		a.error(w, http.StatusBadRequest, "empty_prompt", msg)
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", msg)
	case errors.Is(err, domain.ErrGenerationBusy):
		a.error(w, http.StatusConflict, "generation_busy", msg)
	default:
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			a.error(w, http.StatusBadGateway, string(ge.Category), msg)
			return
		}
		a.Logger.Error().Err(err).Msg("unhandled generation error")
		a.error(w, http.StatusInternalServerError, "internal", msg)
	}
}
