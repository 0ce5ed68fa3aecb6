package application

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

// codeAlphabet は読み間違えやすい文字 (0/O, 1/I/L) を除いた生成用文字集合。
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const generatedCodeLength = 6

type surveyAdminService struct {
	surveys SurveyRepository
	codes   AccessCodeRepository
	resp    ResponseRepository
	now     func() time.Time
}

// NewSurveyAdminService は管理者向けアンケート運用ユースケースを生成する。
func NewSurveyAdminService(surveys SurveyRepository, codes AccessCodeRepository, responses ResponseRepository) SurveyAdminService {
	return &surveyAdminService{
		surveys: surveys,
		codes:   codes,
		resp:    responses,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create はアンケートと既定のアクセスコードを 1 組で登録する。
func (s *surveyAdminService) Create(ctx context.Context, cmd CreateSurveyCommand) (*domain.Survey, *domain.AccessCode, error) {
	now := s.now()
	survey := &domain.Survey{
		Title:        strings.TrimSpace(cmd.Title),
		Questions:    cmd.Questions,
		BusinessID:   strings.TrimSpace(cmd.BusinessID),
		IsActive:     true,
		RewardPoints: cmd.RewardPoints,
		CreatedBy:    cmd.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if survey.BusinessID == "" {
		return nil, nil, fault.Validation("事業者IDは必須です")
	}
	if err := survey.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.surveys.Create(ctx, survey); err != nil {
		return nil, nil, err
	}

	code, err := s.issueCodeForSurvey(ctx, survey, cmd.CodeDescription)
	if err != nil {
		return nil, nil, err
	}
	return survey, code, nil
}

func (s *surveyAdminService) List(ctx context.Context, filter SurveyFilter, paging Paging) ([]domain.Survey, error) {
	return s.surveys.Find(ctx, filter, paging)
}

func (s *surveyAdminService) Detail(ctx context.Context, id string) (*domain.Survey, error) {
	return s.surveys.FindByID(ctx, id)
}

// Update はタイトル・有効状態・付与ポイントの部分更新を行う。
// 事業者IDは作成後に変更できない。
func (s *surveyAdminService) Update(ctx context.Context, id string, cmd UpdateSurveyCommand) (*domain.Survey, error) {
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		if title == "" {
			return nil, fault.Validation("アンケートのタイトルは必須です")
		}
		survey.Title = title
		changed = true
	}
	if cmd.IsActive != nil {
		survey.IsActive = *cmd.IsActive
		changed = true
	}
	if cmd.RewardPoints != nil {
		if *cmd.RewardPoints < 0 {
			return nil, fault.Validation("付与ポイントは0以上で指定してください")
		}
		survey.RewardPoints = *cmd.RewardPoints
		changed = true
	}
	if !changed {
		return nil, fault.Validation("更新内容が指定されていません")
	}

	survey.UpdatedAt = s.now()
	if err := s.surveys.Update(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// IssueCode は既存アンケートに追加のアクセスコードを発行する。
func (s *surveyAdminService) IssueCode(ctx context.Context, cmd IssueCodeCommand) (*domain.AccessCode, error) {
	survey, err := s.surveys.FindByID(ctx, cmd.SurveyID)
	if err != nil {
		return nil, err
	}
	return s.issueCodeForSurvey(ctx, survey, cmd.Description)
}

// issueCodeForSurvey は生成コードの一意制約違反時に再生成して数回だけやり直す。
func (s *surveyAdminService) issueCodeForSurvey(ctx context.Context, survey *domain.Survey, description string) (*domain.AccessCode, error) {
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		value, err := generateCode(generatedCodeLength)
		if err != nil {
			return nil, fault.Transient("アクセスコードの生成に失敗しました", err)
		}
		now := s.now()
		code := &domain.AccessCode{
			Code:        value,
			SurveyID:    survey.ID,
			BusinessID:  survey.BusinessID,
			IsActive:    true,
			Description: strings.TrimSpace(description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = s.codes.Create(ctx, code)
		if err == nil {
			return code, nil
		}
		if !fault.IsKind(err, fault.KindConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fault.Transient("一意なアクセスコードを発行できませんでした", lastErr)
}

func (s *surveyAdminService) UpdateCode(ctx context.Context, codeID string, cmd UpdateCodeCommand) (*domain.AccessCode, error) {
	code, err := s.codes.FindByID(ctx, codeID)
	if err != nil {
		return nil, err
	}

	changed := false
	if cmd.IsActive != nil {
		code.IsActive = *cmd.IsActive
		changed = true
	}
	if cmd.Description != nil {
		code.Description = strings.TrimSpace(*cmd.Description)
		changed = true
	}
	if !changed {
		return nil, fault.Validation("更新内容が指定されていません")
	}

	code.UpdatedAt = s.now()
	if err := s.codes.Update(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (s *surveyAdminService) ListCodes(ctx context.Context, surveyID string) ([]domain.AccessCode, error) {
	if _, err := s.surveys.FindByID(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.codes.FindBySurvey(ctx, surveyID)
}

func (s *surveyAdminService) ListResponses(ctx context.Context, surveyID string, paging Paging) ([]domain.Response, error) {
	if _, err := s.surveys.FindByID(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.resp.FindBySurvey(ctx, surveyID, paging)
}

// generateCode は crypto/rand でコード文字列を生成する。
func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("乱数の取得に失敗: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
