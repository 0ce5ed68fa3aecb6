package public

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	publicapp "github.com/sngm3741/qr-survey-rewards/api/internal/public/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger   *log.Logger
	resolver publicapp.CodeResolverService
	recorder publicapp.ResponseRecorderService
	surveys  publicapp.SurveyRepository
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger   *log.Logger
	Resolver publicapp.CodeResolverService
	Recorder publicapp.ResponseRecorderService
	Surveys  publicapp.SurveyRepository
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:   cfg.Logger,
		resolver: cfg.Resolver,
		recorder: cfg.Recorder,
		surveys:  cfg.Surveys,
	}
}

// Register mounts all public routes onto the router.
// 回答提出は任意認証。トークンがあれば回答者として使い、なくても受け付ける。
func (h *Handler) Register(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Get("/surveys/code/{code}", h.resolveCodeHandler())
	r.Get("/surveys/{id}", h.surveyDetailHandler())
	r.With(optionalAuth).Post("/surveys/{id}/submit", h.submitHandler())
}
