package domain

import "time"

// AuditAction はポイント台帳へ影響した操作の種別タグ。
type AuditAction string

const (
	AuditActionApprovePoints  AuditAction = "APPROVE_POINTS"
	AuditActionRejectPoints   AuditAction = "REJECT_POINTS"
	AuditActionDeleteResponse AuditAction = "DELETE_RESPONSE"
)

// AuditEntry は台帳操作 1 件の追記専用レコード。作成後は変更も削除もしない。
type AuditEntry struct {
	EventID     string
	Action      AuditAction
	ActorID     string
	ResponseID  string
	SurveyID    string
	UserID      string
	PointsDelta int
	Details     string
	CreatedAt   time.Time
}
