package public

import (
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
)

type questionPayload struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

type surveyPayload struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Questions []questionPayload `json:"questions"`
	// BusinessID は正準キー。LegacyBusinessID は旧クライアント互換の写し。
	BusinessID       string    `json:"businessId"`
	LegacyBusinessID string    `json:"business"`
	IsActive         bool      `json:"isActive"`
	RewardPoints     int       `json:"rewardPoints"`
	CreatedAt        time.Time `json:"createdAt"`
}

type accessCodePayload struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	SurveyID    string `json:"surveyId"`
	IsActive    bool   `json:"isActive"`
	Description string `json:"description,omitempty"`
	ScanCount   int    `json:"scanCount"`
}

type resolveResponse struct {
	Survey     surveyPayload      `json:"survey"`
	AccessCode *accessCodePayload `json:"accessCode,omitempty"`
}

type submitRequest struct {
	Answers  []answerInput  `json:"answers"`
	Customer *customerInput `json:"customer,omitempty"`
}

type answerInput struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

type customerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

type customerPayload struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type responsePayload struct {
	ID string `json:"id"`
	// SurveyID は正準キー。LegacySurveyID は旧クライアント互換の写し。
	SurveyID       string           `json:"surveyId"`
	LegacySurveyID string           `json:"survey"`
	BusinessID     string           `json:"businessId"`
	Answers        []answerPayload  `json:"answers"`
	UserID         string           `json:"userId,omitempty"`
	Customer       *customerPayload `json:"customer,omitempty"`
	RewardPoints   int              `json:"rewardPoints"`
	PointsApproved *bool            `json:"pointsApproved"`
	ApprovedBy     string           `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time       `json:"approvedAt,omitempty"`
	RejectedBy     string           `json:"rejectedBy,omitempty"`
	RejectedAt     *time.Time       `json:"rejectedAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type submitResponse struct {
	Success            bool            `json:"success"`
	IsExistingResponse bool            `json:"isExistingResponse,omitempty"`
	Data               responsePayload `json:"data"`
	RewardPoints       int             `json:"rewardPoints"`
}

type submitFailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func buildSurveyPayload(survey domain.Survey) surveyPayload {
	questions := make([]questionPayload, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		questions = append(questions, questionPayload{
			ID:       q.ID,
			Text:     q.Text,
			Type:     string(q.Type),
			Options:  q.Options,
			Required: q.Required,
		})
	}
	return surveyPayload{
		ID:               survey.ID,
		Title:            survey.Title,
		Questions:        questions,
		BusinessID:       survey.BusinessID,
		LegacyBusinessID: survey.BusinessID,
		IsActive:         survey.IsActive,
		RewardPoints:     survey.RewardPoints,
		CreatedAt:        survey.CreatedAt,
	}
}

func buildAccessCodePayload(code domain.AccessCode) accessCodePayload {
	return accessCodePayload{
		ID:          code.ID,
		Code:        code.Code,
		SurveyID:    code.SurveyID,
		IsActive:    code.IsActive,
		Description: code.Description,
		ScanCount:   code.ScanCount,
	}
}

func buildResponsePayload(response domain.Response) responsePayload {
	answers := make([]answerPayload, 0, len(response.Answers))
	for _, a := range response.Answers {
		answers = append(answers, answerPayload{QuestionID: a.QuestionID, Value: a.Value})
	}
	var customer *customerPayload
	if response.Customer != nil {
		customer = &customerPayload{Name: response.Customer.Name, Email: response.Customer.Email}
	}
	return responsePayload{
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
