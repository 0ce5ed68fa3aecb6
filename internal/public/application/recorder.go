package application

import (
	"context"
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

type responseRecorderService struct {
	surveys   SurveyRepository
	responses ResponseRepository
	now       func() time.Time
}

// NewResponseRecorderService は回答記録ユースケースを生成する。
func NewResponseRecorderService(surveys SurveyRepository, responses ResponseRepository) ResponseRecorderService {
	return &responseRecorderService{surveys: surveys, responses: responses, now: func() time.Time { return time.Now().UTC() }}
}

// Submit は回答を一度だけ記録する。重複排除はストアの一意制約に委ね、
// 制約違反は既存回答の読み戻しで回復する。リトライによる挿入は行わない。
func (s *responseRecorderService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	survey, err := s.surveys.FindByID(ctx, cmd.SurveyID)
	if err != nil {
		return nil, err
	}
	if !survey.IsActive {
		return nil, fault.Inactive("このアンケートは現在受付を停止しています")
	}
	if err := domain.ValidateAnswers(survey, cmd.Answers); err != nil {
		return nil, err
	}

	now := s.now()
	respondent := domain.ResolveRespondent(cmd.UserID, cmd.Customer, now)

	response := &domain.Response{
		SurveyID:      survey.ID,
		BusinessID:    survey.BusinessID,
		Answers:       cmd.Answers,
		UserID:        respondent.UserID,
		RespondentKey: respondent.Key,
		Customer:      respondent.Customer,
		RewardPoints:  survey.RewardPoints,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.responses.Insert(ctx, response)
	if err == nil {
		return &SubmitResult{Response: *response, RewardPoints: survey.RewardPoints}, nil
	}
	if !fault.IsKind(err, fault.KindConflict) || respondent.Key == "" {
		return nil, err
	}

	// 同一回答者の先行提出が勝った。制約と同じキーで読み戻して返す。
	existing, lookupErr := s.responses.FindBySurveyAndRespondent(ctx, survey.ID, respondent.Key)
	if lookupErr != nil {
		return nil, lookupErr
	}
	return &SubmitResult{Response: *existing, IsExisting: true, RewardPoints: 0}, nil
}
