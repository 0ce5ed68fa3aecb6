package application

import (
	"context"
	"time"

	admindomain "github.com/sngm3741/qr-survey-rewards/api/internal/admin/domain"
	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
)

// SurveyRepository は管理コンテキストのアンケート永続化ポート。
type SurveyRepository interface {
	Find(ctx context.Context, filter SurveyFilter, paging Paging) ([]domain.Survey, error)
	FindByID(ctx context.Context, id string) (*domain.Survey, error)
	Create(ctx context.Context, survey *domain.Survey) error
	Update(ctx context.Context, survey *domain.Survey) error
}

// AccessCodeRepository は管理コンテキストのアクセスコード永続化ポート。
type AccessCodeRepository interface {
	Create(ctx context.Context, code *domain.AccessCode) error
	FindByID(ctx context.Context, id string) (*domain.AccessCode, error)
	FindBySurvey(ctx context.Context, surveyID string) ([]domain.AccessCode, error)
	Update(ctx context.Context, code *domain.AccessCode) error
}

// ResponseRepository は台帳遷移のための回答永続化ポート。
// 各メソッドは単一ドキュメントの原子的更新として実装されることを前提とする。
type ResponseRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Response, error)
	FindBySurvey(ctx context.Context, surveyID string, paging Paging) ([]domain.Response, error)
	// MarkApproved は pointsApproved=true でない回答のみを承認済みへ遷移させる。
	// 既に承認済みの場合は fault.KindAlreadyApproved を返す。
	MarkApproved(ctx context.Context, id string, points int, adminID string, at time.Time) (*domain.Response, error)
	// MarkRejected は回答を却下済みへ遷移させ、遷移前の状態を返す。
	MarkRejected(ctx context.Context, id string, adminID string, at time.Time) (*domain.Response, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository はユーザー残高の読み書きポート。減算は 0 で必ず打ち止めになる。
type UserRepository interface {
	CreditPoints(ctx context.Context, userID string, delta int) error
	DebitPointsClamped(ctx context.Context, userID string, delta int) error
	PointBalance(ctx context.Context, userID string) (int, error)
}

// AuditTrail はポイント台帳の追記専用監査ログへのポート。
type AuditTrail interface {
	Record(ctx context.Context, entry admindomain.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]admindomain.AuditEntry, error)
}

// SurveyFilter は管理一覧の検索条件。
type SurveyFilter struct {
	BusinessID string
	Keyword    string
	ActiveOnly bool
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// ApproveResult は承認操作の確定内容。
type ApproveResult struct {
	ResponseID     string
	ApprovedPoints int
	ApprovedBy     string
	ApprovedAt     time.Time
}

// RejectResult は却下操作の確定内容。
type RejectResult struct {
	ResponseID string
	RejectedBy string
	RejectedAt time.Time
	// ReversedPoints は承認済みからの却下で残高から戻した量。
	ReversedPoints int
}

// DeleteResult は削除操作の確定内容。
type DeleteResult struct {
	ResponseID     string
	DeletedBy      string
	DeletedAt      time.Time
	ReversedPoints int
}

// PointLedgerService は回答ごとのポイント承認状態とユーザー残高を管理するユースケース。
type PointLedgerService interface {
	Approve(ctx context.Context, responseID string, approvedPoints int, actingAdmin string) (*ApproveResult, error)
	Reject(ctx context.Context, responseID string, actingAdmin string) (*RejectResult, error)
	DeleteResponse(ctx context.Context, responseID string, actingAdmin string) (*DeleteResult, error)
}

// CreateSurveyCommand はアンケート新規作成の入力。既定のアクセスコードを同時に発行する。
type CreateSurveyCommand struct {
	Title        string
	Questions    []domain.Question
	BusinessID   string
	RewardPoints int
	CreatedBy    string
	// CodeDescription は既定コードの設置場所メモ。
	CodeDescription string
}

// UpdateSurveyCommand は部分更新の入力。nil のフィールドは変更しない。
type UpdateSurveyCommand struct {
	Title        *string
	IsActive     *bool
	RewardPoints *int
}

// IssueCodeCommand は追加アクセスコード発行の入力。
type IssueCodeCommand struct {
	SurveyID    string
	Description string
}

// UpdateCodeCommand はアクセスコードの部分更新の入力。
type UpdateCodeCommand struct {
	IsActive    *bool
	Description *string
}

// SurveyAdminService は管理者向けのアンケート・コード運用ユースケース。
type SurveyAdminService interface {
	Create(ctx context.Context, cmd CreateSurveyCommand) (*domain.Survey, *domain.AccessCode, error)
	List(ctx context.Context, filter SurveyFilter, paging Paging) ([]domain.Survey, error)
	Detail(ctx context.Context, id string) (*domain.Survey, error)
	Update(ctx context.Context, id string, cmd UpdateSurveyCommand) (*domain.Survey, error)
	IssueCode(ctx context.Context, cmd IssueCodeCommand) (*domain.AccessCode, error)
	UpdateCode(ctx context.Context, codeID string, cmd UpdateCodeCommand) (*domain.AccessCode, error)
	ListCodes(ctx context.Context, surveyID string) ([]domain.AccessCode, error)
	ListResponses(ctx context.Context, surveyID string, paging Paging) ([]domain.Response, error)
}
