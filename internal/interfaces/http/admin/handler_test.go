package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminapp "github.com/sngm3741/qr-survey-rewards/api/internal/admin/application"
	admindomain "github.com/sngm3741/qr-survey-rewards/api/internal/admin/domain"
	"github.com/sngm3741/qr-survey-rewards/api/internal/interfaces/http/common"
	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

const (
	surveyIDHex   = "665f1f77bcf86cd799439011"
	responseIDHex = "665f1f77bcf86cd799439031"
)

type stubSurveyService struct {
	adminapp.SurveyAdminService

	createSurvey *domain.Survey
	createCode   *domain.AccessCode
	createErr    error
	gotCreate    adminapp.CreateSurveyCommand

	surveys   []domain.Survey
	gotFilter adminapp.SurveyFilter
	gotPaging adminapp.Paging

	updateSurvey *domain.Survey
	updateErr    error
	gotUpdate    adminapp.UpdateSurveyCommand

	responses []domain.Response
	listErr   error
}

func (s *stubSurveyService) Create(_ context.Context, cmd adminapp.CreateSurveyCommand) (*domain.Survey, *domain.AccessCode, error) {
	s.gotCreate = cmd
	if s.createErr != nil {
		return nil, nil, s.createErr
	}
	return s.createSurvey, s.createCode, nil
}

func (s *stubSurveyService) List(_ context.Context, filter adminapp.SurveyFilter, paging adminapp.Paging) ([]domain.Survey, error) {
	s.gotFilter = filter
	s.gotPaging = paging
	return s.surveys, nil
}

func (s *stubSurveyService) Update(_ context.Context, _ string, cmd adminapp.UpdateSurveyCommand) (*domain.Survey, error) {
	s.gotUpdate = cmd
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updateSurvey, nil
}

func (s *stubSurveyService) ListResponses(_ context.Context, _ string, _ adminapp.Paging) ([]domain.Response, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.responses, nil
}

type stubLedger struct {
	approveResult *adminapp.ApproveResult
	approveErr    error
	gotPoints     int
	gotAdmin      string

	rejectResult *adminapp.RejectResult
	rejectErr    error

	deleteResult *adminapp.DeleteResult
	deleteErr    error
}

func (s *stubLedger) Approve(_ context.Context, _ string, points int, actingAdmin string) (*adminapp.ApproveResult, error) {
	s.gotPoints = points
	s.gotAdmin = actingAdmin
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return s.approveResult, nil
}

func (s *stubLedger) Reject(_ context.Context, _ string, actingAdmin string) (*adminapp.RejectResult, error) {
	s.gotAdmin = actingAdmin
	if s.rejectErr != nil {
		return nil, s.rejectErr
	}
	return s.rejectResult, nil
}

func (s *stubLedger) DeleteResponse(_ context.Context, _ string, actingAdmin string) (*adminapp.DeleteResult, error) {
	s.gotAdmin = actingAdmin
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return s.deleteResult, nil
}

type stubUsers struct {
	points int
	err    error
}

func (s *stubUsers) CreditPoints(context.Context, string, int) error       { return nil }
func (s *stubUsers) DebitPointsClamped(context.Context, string, int) error { return nil }
func (s *stubUsers) PointBalance(context.Context, string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.points, nil
}

type stubAudit struct {
	entries  []admindomain.AuditEntry
	gotLimit int
}

func (s *stubAudit) Record(context.Context, admindomain.AuditEntry) error { return nil }
func (s *stubAudit) Recent(_ context.Context, limit int) ([]admindomain.AuditEntry, error) {
	s.gotLimit = limit
	return s.entries, nil
}

func adminAs(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.ContextWithUser(r.Context(), common.AuthenticatedUser{ID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newAdminRouter(service *stubSurveyService, ledger *stubLedger, users *stubUsers, audit *stubAudit) *chi.Mux {
	handler := NewHandler(Config{
		Logger:              log.New(os.Stdout, "[test] ", 0),
		SurveyService:       service,
		Ledger:              ledger,
		Users:               users,
		Audit:               audit,
		DefaultRewardPoints: 10,
	})
	router := chi.NewRouter()
	router.Route("/admin", func(r chi.Router) {
		r.Use(adminAs("admin-1"))
		handler.Register(r)
	})
	return router
}

func TestSurveyCreateHandler(t *testing.T) {
	service := &stubSurveyService{
		createSurvey: &domain.Survey{
			ID:           surveyIDHex,
			Title:        "ご来店アンケート",
			BusinessID:   "665f1f77bcf86cd799439012",
			IsActive:     true,
			RewardPoints: 10,
		},
		createCode: &domain.AccessCode{ID: "665f1f77bcf86cd799439021", Code: "ABC123", SurveyID: surveyIDHex, IsActive: true},
	}
	router := newAdminRouter(service, &stubLedger{}, &stubUsers{}, &stubAudit{})

	payload := `{"title":"ご来店アンケート","businessId":"665f1f77bcf86cd799439012","questions":[{"text":"満足度","type":"rating","required":true}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/surveys", strings.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin-1", service.gotCreate.CreatedBy)
	// rewardPoints 未指定時は既定値で作成される。
	assert.Equal(t, 10, service.gotCreate.RewardPoints)
	require.Len(t, service.gotCreate.Questions, 1)
	assert.Equal(t, "q1", service.gotCreate.Questions[0].ID)
	assert.Equal(t, domain.QuestionTypeRating, service.gotCreate.Questions[0].Type)

	var body adminSurveyCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, surveyIDHex, body.Survey.ID)
	assert.Equal(t, "ABC123", body.AccessCode.Code)
}

func TestSurveyCreateHandlerBadQuestionType(t *testing.T) {
	router := newAdminRouter(&stubSurveyService{}, &stubLedger{}, &stubUsers{}, &stubAudit{})

	payload := `{"title":"t","businessId":"b","questions":[{"text":"x","type":"slider"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/surveys", strings.NewReader(payload)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSurveyListHandlerFilters(t *testing.T) {
	service := &stubSurveyService{surveys: []domain.Survey{{ID: surveyIDHex, Title: "t", IsActive: true}}}
	router := newAdminRouter(service, &stubLedger{}, &stubUsers{}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/surveys?businessId=b-1&keyword=来店&active=true&page=2&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b-1", service.gotFilter.BusinessID)
	assert.Equal(t, "来店", service.gotFilter.Keyword)
	assert.True(t, service.gotFilter.ActiveOnly)
	assert.Equal(t, adminapp.Paging{Page: 2, Limit: 5}, service.gotPaging)

	var body adminSurveyListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)
}

func TestSurveyUpdateHandler(t *testing.T) {
	service := &stubSurveyService{updateSurvey: &domain.Survey{ID: surveyIDHex, Title: "新タイトル", IsActive: false}}
	router := newAdminRouter(service, &stubLedger{}, &stubUsers{}, &stubAudit{})

	payload := `{"isActive":false}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/surveys/"+surveyIDHex, strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, service.gotUpdate.IsActive)
	assert.False(t, *service.gotUpdate.IsActive)
	assert.Nil(t, service.gotUpdate.Title)
}

func TestApprovePointsHandler(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ledger := &stubLedger{approveResult: &adminapp.ApproveResult{
		ResponseID:     responseIDHex,
		ApprovedPoints: 15,
		ApprovedBy:     "admin-1",
		ApprovedAt:     at,
	}}
	router := newAdminRouter(&stubSurveyService{}, ledger, &stubUsers{}, &stubAudit{})

	payload := `{"approvedPoints":15}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/responses/"+responseIDHex+"/approve-points", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 15, ledger.gotPoints)
	assert.Equal(t, "admin-1", ledger.gotAdmin)

	var body struct {
		Success bool                 `json:"success"`
		Data    approveResultPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, responseIDHex, body.Data.ResponseID)
	assert.Equal(t, 15, body.Data.ApprovedPoints)
	assert.Equal(t, "admin-1", body.Data.ApprovedBy)
}

func TestApprovePointsHandlerMissingPoints(t *testing.T) {
	router := newAdminRouter(&stubSurveyService{}, &stubLedger{}, &stubUsers{}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/responses/"+responseIDHex+"/approve-points", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovePointsHandlerAlreadyApproved(t *testing.T) {
	ledger := &stubLedger{approveErr: fault.AlreadyApproved("この回答のポイントは承認済みです")}
	router := newAdminRouter(&stubSurveyService{}, ledger, &stubUsers{}, &stubAudit{})

	payload := `{"approvedPoints":10}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/responses/"+responseIDHex+"/approve-points", strings.NewReader(payload)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "この回答のポイントは承認済みです", body["error"])
}

func TestRejectPointsHandler(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ledger := &stubLedger{rejectResult: &adminapp.RejectResult{
		ResponseID:     responseIDHex,
		RejectedBy:     "admin-1",
		RejectedAt:     at,
		ReversedPoints: 10,
	}}
	router := newAdminRouter(&stubSurveyService{}, ledger, &stubUsers{}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/responses/"+responseIDHex+"/reject-points", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool                `json:"success"`
		Data    rejectResultPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 10, body.Data.ReversedPoints)
}

func TestResponseDeleteHandler(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ledger := &stubLedger{deleteResult: &adminapp.DeleteResult{
		ResponseID:     responseIDHex,
		DeletedBy:      "admin-1",
		DeletedAt:      at,
		ReversedPoints: 10,
	}}
	router := newAdminRouter(&stubSurveyService{}, ledger, &stubUsers{}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/responses/"+responseIDHex, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool                `json:"success"`
		Data    deleteResultPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, responseIDHex, body.Data.ResponseID)
	assert.Equal(t, "admin-1", body.Data.DeletedBy)
}

func TestResponseDeleteHandlerNotFound(t *testing.T) {
	ledger := &stubLedger{deleteErr: fault.NotFound("回答が見つかりません")}
	router := newAdminRouter(&stubSurveyService{}, ledger, &stubUsers{}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/responses/"+responseIDHex, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResponseListHandler(t *testing.T) {
	approved := true
	service := &stubSurveyService{responses: []domain.Response{
		{
			ID:             responseIDHex,
			SurveyID:       surveyIDHex,
			UserID:         "user-1",
			RewardPoints:   10,
			PointsApproved: &approved,
		},
	}}
	router := newAdminRouter(service, &stubLedger{}, &stubUsers{}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/surveys/"+surveyIDHex+"/responses", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body adminResponseListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, body.Items[0].SurveyID, body.Items[0].LegacySurveyID)
	require.NotNil(t, body.Items[0].PointsApproved)
	assert.True(t, *body.Items[0].PointsApproved)
}

func TestAuditListHandler(t *testing.T) {
	audit := &stubAudit{entries: []admindomain.AuditEntry{
		{
			EventID:     "evt-1",
			Action:      admindomain.AuditActionApprovePoints,
			ActorID:     "admin-1",
			ResponseID:  responseIDHex,
			PointsDelta: 10,
		},
	}}
	router := newAdminRouter(&stubSurveyService{}, &stubLedger{}, &stubUsers{}, audit)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, audit.gotLimit)

	var body auditListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, string(admindomain.AuditActionApprovePoints), body.Items[0].Action)
}

func TestUserPointsHandler(t *testing.T) {
	router := newAdminRouter(&stubSurveyService{}, &stubLedger{}, &stubUsers{points: 120}, &stubAudit{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/user-1/points", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body userPointsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body.UserID)
	assert.Equal(t, 120, body.Points)
}
