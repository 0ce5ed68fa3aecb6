package admin

import (
	"log"

	"github.com/go-chi/chi/v5"
	adminapp "github.com/sngm3741/qr-survey-rewards/api/internal/admin/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger              *log.Logger
	surveyService       adminapp.SurveyAdminService
	ledger              adminapp.PointLedgerService
	users               adminapp.UserRepository
	audit               adminapp.AuditTrail
	defaultRewardPoints int
}

// Config provides dependencies for Handler.
type Config struct {
	Logger              *log.Logger
	SurveyService       adminapp.SurveyAdminService
	Ledger              adminapp.PointLedgerService
	Users               adminapp.UserRepository
	Audit               adminapp.AuditTrail
	DefaultRewardPoints int
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:              cfg.Logger,
		surveyService:       cfg.SurveyService,
		ledger:              cfg.Ledger,
		users:               cfg.Users,
		audit:               cfg.Audit,
		defaultRewardPoints: cfg.DefaultRewardPoints,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/surveys", h.surveyCreateHandler())
	r.Get("/surveys", h.surveyListHandler())
	r.Get("/surveys/{id}", h.surveyDetailHandler())
	r.Patch("/surveys/{id}", h.surveyUpdateHandler())
	r.Post("/surveys/{id}/codes", h.codeIssueHandler())
	r.Get("/surveys/{id}/codes", h.codeListHandler())
	r.Patch("/codes/{id}", h.codeUpdateHandler())
	r.Get("/surveys/{id}/responses", h.responseListHandler())
	r.Patch("/responses/{id}/approve-points", h.approvePointsHandler())
	r.Patch("/responses/{id}/reject-points", h.rejectPointsHandler())
	r.Delete("/responses/{id}", h.responseDeleteHandler())
	r.Get("/audit", h.auditListHandler())
	r.Get("/users/{id}/points", h.userPointsHandler())
}
