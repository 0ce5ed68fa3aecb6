package admin

import (
	"time"

	admindomain "github.com/sngm3741/qr-survey-rewards/api/internal/admin/domain"
	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
)

type createSurveyRequest struct {
	Title           string          `json:"title"`
	Questions       []questionInput `json:"questions"`
	BusinessID      string          `json:"businessId"`
	RewardPoints    *int            `json:"rewardPoints"`
	CodeDescription string          `json:"codeDescription"`
}

type questionInput struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
}

type updateSurveyRequest struct {
	Title        *string `json:"title"`
	IsActive     *bool   `json:"isActive"`
	RewardPoints *int    `json:"rewardPoints"`
}

type issueCodeRequest struct {
	Description string `json:"description"`
}

type updateCodeRequest struct {
	IsActive    *bool   `json:"isActive"`
	Description *string `json:"description"`
}

type approvePointsRequest struct {
	ApprovedPoints *int `json:"approvedPoints"`
}

type adminQuestionPayload struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

type adminSurveyPayload struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Questions    []adminQuestionPayload `json:"questions"`
	BusinessID   string                 `json:"businessId"`
	IsActive     bool                   `json:"isActive"`
	RewardPoints int                    `json:"rewardPoints"`
	LegacyCode   string                 `json:"legacyCode,omitempty"`
	CreatedBy    string                 `json:"createdBy,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

type adminAccessCodePayload struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	SurveyID    string    `json:"surveyId"`
	BusinessID  string    `json:"businessId"`
	IsActive    bool      `json:"isActive"`
	Description string    `json:"description,omitempty"`
	ScanCount   int       `json:"scanCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type adminSurveyCreateResponse struct {
	Survey     adminSurveyPayload     `json:"survey"`
	AccessCode adminAccessCodePayload `json:"accessCode"`
}

type adminSurveyListResponse struct {
	Items []adminSurveyPayload `json:"items"`
}

type adminCodeListResponse struct {
	Items []adminAccessCodePayload `json:"items"`
}

type adminAnswerPayload struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

type adminCustomerPayload struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type adminResponsePayload struct {
	ID             string                `json:"id"`
	SurveyID       string                `json:"surveyId"`
	LegacySurveyID string                `json:"survey"`
	BusinessID     string                `json:"businessId"`
	Answers        []adminAnswerPayload  `json:"answers"`
	UserID         string                `json:"userId,omitempty"`
	Customer       *adminCustomerPayload `json:"customer,omitempty"`
	RewardPoints   int                   `json:"rewardPoints"`
	PointsApproved *bool                 `json:"pointsApproved"`
	ApprovedBy     string                `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time            `json:"approvedAt,omitempty"`
	RejectedBy     string                `json:"rejectedBy,omitempty"`
	RejectedAt     *time.Time            `json:"rejectedAt,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type adminResponseListResponse struct {
	Items []adminResponsePayload `json:"items"`
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type approveResultPayload struct {
	ResponseID     string    `json:"responseId"`
	ApprovedPoints int       `json:"approvedPoints"`
	ApprovedBy     string    `json:"approvedBy"`
	ApprovedAt     time.Time `json:"approvedAt"`
}

type rejectResultPayload struct {
	ResponseID     string    `json:"responseId"`
	RejectedBy     string    `json:"rejectedBy"`
	RejectedAt     time.Time `json:"rejectedAt"`
	ReversedPoints int       `json:"reversedPoints"`
}

type deleteResultPayload struct {
	ResponseID     string    `json:"responseId"`
	DeletedBy      string    `json:"deletedBy"`
	DeletedAt      time.Time `json:"deletedAt"`
	ReversedPoints int       `json:"reversedPoints"`
}

type auditEntryPayload struct {
	EventID     string    `json:"eventId"`
	Action      string    `json:"action"`
	ActorID     string    `json:"actorId"`
	ResponseID  string    `json:"responseId,omitempty"`
	SurveyID    string    `json:"surveyId,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	PointsDelta int       `json:"pointsDelta"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type auditListResponse struct {
	Items []auditEntryPayload `json:"items"`
}

type userPointsResponse struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
}

func buildAdminSurveyPayload(survey domain.Survey) adminSurveyPayload {
	questions := make([]adminQuestionPayload, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		questions = append(questions, adminQuestionPayload{
			ID:       q.ID,
			Text:     q.Text,
			Type:     string(q.Type),
			Options:  q.Options,
			Required: q.Required,
		})
	}
	return adminSurveyPayload{
		ID:           survey.ID,
		Title:        survey.Title,
		Questions:    questions,
		BusinessID:   survey.BusinessID,
		IsActive:     survey.IsActive,
		RewardPoints: survey.RewardPoints,
		LegacyCode:   survey.LegacyCode,
		CreatedBy:    survey.CreatedBy,
		CreatedAt:    survey.CreatedAt,
		UpdatedAt:    survey.UpdatedAt,
	}
}

func buildAdminAccessCodePayload(code domain.AccessCode) adminAccessCodePayload {
	return adminAccessCodePayload{
		ID:          code.ID,
		Code:        code.Code,
		SurveyID:    code.SurveyID,
		BusinessID:  code.BusinessID,
		IsActive:    code.IsActive,
		Description: code.Description,
		ScanCount:   code.ScanCount,
		CreatedAt:   code.CreatedAt,
	}
}

func buildAdminResponsePayload(response domain.Response) adminResponsePayload {
	answers := make([]adminAnswerPayload, 0, len(response.Answers))
	for _, a := range response.Answers {
		answers = append(answers, adminAnswerPayload{QuestionID: a.QuestionID, Value: a.Value})
	}
	var customer *adminCustomerPayload
	if response.Customer != nil {
		customer = &adminCustomerPayload{Name: response.Customer.Name, Email: response.Customer.Email}
	}
	return adminResponsePayload{
		ID:             response.ID,
		SurveyID:       response.SurveyID,
		LegacySurveyID: response.SurveyID,
		BusinessID:     response.BusinessID,
		Answers:        answers,
		UserID:         response.UserID,
		Customer:       customer,
		RewardPoints:   response.RewardPoints,
		PointsApproved: response.PointsApproved,
		ApprovedBy:     response.ApprovedBy,
		ApprovedAt:     response.ApprovedAt,
		RejectedBy:     response.RejectedBy,
		RejectedAt:     response.RejectedAt,
		CreatedAt:      response.CreatedAt,
	}
}

func buildAuditEntryPayload(entry admindomain.AuditEntry) auditEntryPayload {
	return auditEntryPayload{
		EventID:     entry.EventID,
		Action:      string(entry.Action),
		ActorID:     entry.ActorID,
		ResponseID:  entry.ResponseID,
		SurveyID:    entry.SurveyID,
		UserID:      entry.UserID,
		PointsDelta: entry.PointsDelta,
		Details:     entry.Details,
		CreatedAt:   entry.CreatedAt,
	}
}
