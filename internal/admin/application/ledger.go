package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	admindomain "github.com/sngm3741/qr-survey-rewards/api/internal/admin/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

type pointLedgerService struct {
	responses ResponseRepository
	users     UserRepository
	audit     AuditTrail
	logger    *log.Logger
	now       func() time.Time
}

// NewPointLedgerService はポイント台帳ユースケースを生成する。
func NewPointLedgerService(responses ResponseRepository, users UserRepository, audit AuditTrail, logger *log.Logger) PointLedgerService {
	return &pointLedgerService{
		responses: responses,
		users:     users,
		audit:     audit,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Approve は回答を承認済みへ遷移させ、承認ポイントを回答者残高へ加算する。
// 承認済みへの再承認は冪等に成功させず AlreadyApproved で拒否する。
// 黙って no-op にすると二重加算の意図を見逃すため。
func (s *pointLedgerService) Approve(ctx context.Context, responseID string, approvedPoints int, actingAdmin string) (*ApproveResult, error) {
	if approvedPoints < 0 {
		return nil, fault.Validation("承認ポイントは0以上で指定してください")
	}

	at := s.now()
	response, err := s.responses.MarkApproved(ctx, responseID, approvedPoints, actingAdmin, at)
	if err != nil {
		return nil, err
	}

	// 回答者が認証ユーザーでない場合、加算先の残高が存在しないため承認記録のみ行う。
	if response.UserID != "" && approvedPoints > 0 {
		if err := s.users.CreditPoints(ctx, response.UserID, approvedPoints); err != nil {
			return nil, err
		}
	}

	s.record(ctx, admindomain.AuditEntry{
		Action:      admindomain.AuditActionApprovePoints,
		ActorID:     actingAdmin,
		ResponseID:  response.ID,
		SurveyID:    response.SurveyID,
		UserID:      response.UserID,
		PointsDelta: approvedPoints,
		Details:     fmt.Sprintf("承認ポイント %d を確定", approvedPoints),
	})

	return &ApproveResult{
		ResponseID:     response.ID,
		ApprovedPoints: approvedPoints,
		ApprovedBy:     actingAdmin,
		ApprovedAt:     at,
	}, nil
}

// Reject は回答を却下済みへ遷移させる。承認済みからの却下では、
// 確定済みポイントを残高から戻す。残高は 0 を下回らない。
func (s *pointLedgerService) Reject(ctx context.Context, responseID string, actingAdmin string) (*RejectResult, error) {
	at := s.now()
	previous, err := s.responses.MarkRejected(ctx, responseID, actingAdmin, at)
	if err != nil {
		return nil, err
	}

	reversed := 0
	if previous.IsApproved() && previous.RewardPoints > 0 && previous.UserID != "" {
		if err := s.users.DebitPointsClamped(ctx, previous.UserID, previous.RewardPoints); err != nil {
			return nil, err
		}
		reversed = previous.RewardPoints
	}

	s.record(ctx, admindomain.AuditEntry{
		Action:      admindomain.AuditActionRejectPoints,
		ActorID:     actingAdmin,
		ResponseID:  previous.ID,
		SurveyID:    previous.SurveyID,
		UserID:      previous.UserID,
		PointsDelta: -reversed,
		Details:     "ポイント却下",
	})

	return &RejectResult{
		ResponseID:     previous.ID,
		RejectedBy:     actingAdmin,
		RejectedAt:     at,
		ReversedPoints: reversed,
	}, nil
}

// DeleteResponse は回答を削除する。承認済みポイントが残っている場合は
// 削除に先立って残高から戻す。
func (s *pointLedgerService) DeleteResponse(ctx context.Context, responseID string, actingAdmin string) (*DeleteResult, error) {
	response, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return nil, err
	}

	reversed := 0
	if response.IsApproved() && response.RewardPoints > 0 && response.UserID != "" {
		if err := s.users.DebitPointsClamped(ctx, response.UserID, response.RewardPoints); err != nil {
			return nil, err
		}
		reversed = response.RewardPoints
	}

	if err := s.responses.Delete(ctx, responseID); err != nil {
		return nil, err
	}

	at := s.now()
	s.record(ctx, admindomain.AuditEntry{
		Action:      admindomain.AuditActionDeleteResponse,
		ActorID:     actingAdmin,
		ResponseID:  response.ID,
		SurveyID:    response.SurveyID,
		UserID:      response.UserID,
		PointsDelta: -reversed,
		Details:     "回答削除",
	})

	return &DeleteResult{
		ResponseID:     response.ID,
		DeletedBy:      actingAdmin,
		DeletedAt:      at,
		ReversedPoints: reversed,
	}, nil
}

// record は監査ログを追記する。追記失敗で確定済みの台帳更新を巻き戻さず、
// 運用ログにだけ残す。
func (s *pointLedgerService) record(ctx context.Context, entry admindomain.AuditEntry) {
	entry.EventID = uuid.NewString()
	entry.CreatedAt = s.now()
	if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Printf("監査ログの追記に失敗 action=%s response=%s err=%v", entry.Action, entry.ResponseID, err)
	}
}
