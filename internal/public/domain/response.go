package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

// Customer は認証なし回答者の埋め込みレコード。
type Customer struct {
	Name  string
	Email string
}

// Answer は設問 1 件への回答。
type Answer struct {
	QuestionID string
	Value      any
}

// Response はアンケート回答 1 件の集約ルート。
// PointsApproved は nil=保留 / true=承認 / false=却下 の三値。
type Response struct {
	ID             string
	SurveyID       string
	BusinessID     string
	Answers        []Answer
	UserID         string
	RespondentKey  string
	Customer       *Customer
	RewardPoints   int
	PointsApproved *bool
	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedBy     string
	RejectedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsApproved はポイント承認済みかどうかを返す。
func (r *Response) IsApproved() bool {
	return r.PointsApproved != nil && *r.PointsApproved
}

// ValidateAnswers は回答集合がアンケートの設問構成と整合するか確認する。
func ValidateAnswers(survey *Survey, answers []Answer) error {
	if len(answers) == 0 {
		return fault.Validation("回答は1件以上必要です")
	}
	answered := make(map[string]struct{}, len(answers))
	for _, answer := range answers {
		questionID := strings.TrimSpace(answer.QuestionID)
		if questionID == "" {
			return fault.Validation("設問IDが指定されていない回答があります")
		}
		if _, ok := survey.QuestionByID(questionID); !ok {
			return fault.Validation(fmt.Sprintf("設問 %s はこのアンケートに存在しません", questionID))
		}
		answered[questionID] = struct{}{}
	}
	for _, q := range survey.Questions {
		if !q.Required {
			continue
		}
		if _, ok := answered[q.ID]; !ok {
			return fault.Validation(fmt.Sprintf("必須設問 %s への回答がありません", q.ID))
		}
	}
	return nil
}

// RespondentIdentity は回答の重複排除キーと表示用の回答者情報をまとめる。
type RespondentIdentity struct {
	UserID   string
	Customer *Customer
	Key      string
}

// ResolveRespondent は認証ユーザー、名前/メールの組、匿名の順で回答者を決定する。
// 匿名回答は Key を持たず、重複排除の対象外になる。
func ResolveRespondent(userID string, customer *Customer, now time.Time) RespondentIdentity {
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		return RespondentIdentity{UserID: trimmed, Key: "user:" + trimmed}
	}
	if customer != nil {
		name := strings.TrimSpace(customer.Name)
		email := strings.ToLower(strings.TrimSpace(customer.Email))
		if name != "" || email != "" {
			return RespondentIdentity{
				Customer: &Customer{Name: name, Email: email},
				Key:      "customer:" + name + "|" + email,
			}
		}
	}
	anon := &Customer{Name: "匿名のお客様 " + now.Format("2006/01/02 15:04")}
	return RespondentIdentity{Customer: anon}
}
