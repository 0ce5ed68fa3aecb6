package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestionDocument はアンケート設問の埋め込みドキュメント。
type QuestionDocument struct {
	ID       string   `bson:"id"`
	Text     string   `bson:"text"`
	Type     string   `bson:"type"`
	Options  []string `bson:"options,omitempty"`
	Required bool     `bson:"required"`
}

// SurveyDocument は MongoDB 上でのアンケートスキーマを Go 構造体として表現したもの。
type SurveyDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Title        string             `bson:"title"`
	Questions    []QuestionDocument `bson:"questions"`
	BusinessID   primitive.ObjectID `bson:"businessId"`
	IsActive     bool               `bson:"isActive"`
	RewardPoints int                `bson:"rewardPoints"`
	LegacyCode   string             `bson:"legacyCode,omitempty"`
	CreatedBy    string             `bson:"createdBy,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// AccessCodeDocument はアクセスコードのスキーマ。code には一意インデックスを張る。
type AccessCodeDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Code        string             `bson:"code"`
	SurveyID    primitive.ObjectID `bson:"surveyId"`
	BusinessID  primitive.ObjectID `bson:"businessId"`
	IsActive    bool               `bson:"isActive"`
	Description string             `bson:"description,omitempty"`
	ScanCount   int                `bson:"scanCount"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// CustomerDocument は認証なし回答者の埋め込みレコード。
type CustomerDocument struct {
	Name  string `bson:"name,omitempty"`
	Email string `bson:"email,omitempty"`
}

// AnswerDocument は設問 1 件への回答の埋め込みドキュメント。
type AnswerDocument struct {
	QuestionID string      `bson:"questionId"`
	Value      interface{} `bson:"value"`
}

// ResponseDocument はアンケート回答のスキーマ。
// respondentKey を持つドキュメントのみ (surveyId, respondentKey) の
// 一意インデックス対象になり、匿名回答は重複排除から外れる。
type ResponseDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	SurveyID       primitive.ObjectID `bson:"surveyId"`
	BusinessID     primitive.ObjectID `bson:"businessId"`
	Answers        []AnswerDocument   `bson:"answers"`
	UserID         string             `bson:"userId,omitempty"`
	RespondentKey  string             `bson:"respondentKey,omitempty"`
	Customer       *CustomerDocument  `bson:"customer,omitempty"`
	RewardPoints   int                `bson:"rewardPoints"`
	PointsApproved *bool              `bson:"pointsApproved"`
	ApprovedBy     string             `bson:"approvedBy,omitempty"`
	ApprovedAt     *time.Time         `bson:"approvedAt,omitempty"`
	RejectedBy     string             `bson:"rejectedBy,omitempty"`
	RejectedAt     *time.Time         `bson:"rejectedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// UserDocument は回答者の残高レコード。_id は認証基盤の subject をそのまま使う。
type UserDocument struct {
	ID        string     `bson:"_id"`
	Points    int        `bson:"points"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty"`
}

// AuditEntryDocument はポイント台帳監査ログのスキーマ。追記のみで更新しない。
type AuditEntryDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	EventID     string             `bson:"eventId"`
	Action      string             `bson:"action"`
	ActorID     string             `bson:"actorId"`
	ResponseID  string             `bson:"responseId,omitempty"`
	SurveyID    string             `bson:"surveyId,omitempty"`
	UserID      string             `bson:"userId,omitempty"`
	PointsDelta int                `bson:"pointsDelta"`
	Details     string             `bson:"details,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}
