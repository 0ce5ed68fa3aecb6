package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

// QuestionType はアンケート設問の回答形式。
type QuestionType string

const (
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
)

// NewQuestionType は入力文字列を検証済みの QuestionType へ変換する。
func NewQuestionType(value string) (QuestionType, error) {
	switch QuestionType(strings.TrimSpace(value)) {
	case QuestionTypeRating:
		return QuestionTypeRating, nil
	case QuestionTypeText:
		return QuestionTypeText, nil
	case QuestionTypeMultipleChoice:
		return QuestionTypeMultipleChoice, nil
	default:
		return "", fault.Validation(fmt.Sprintf("設問形式 %q は利用できません", value))
	}
}

// Question はアンケートを構成する設問 1 件。
type Question struct {
	ID       string
	Text     string
	Type     QuestionType
	Options  []string
	Required bool
}

// Survey は店舗が発行するアンケートの集約ルート。
// BusinessID は作成後に変更されない。
type Survey struct {
	ID           string
	Title        string
	Questions    []Question
	BusinessID   string
	IsActive     bool
	RewardPoints int
	LegacyCode   string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate はアンケートの不変条件を確認する。設問は最低 1 件必要。
func (s *Survey) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fault.Validation("アンケートのタイトルは必須です")
	}
	if len(s.Questions) == 0 {
		return fault.Validation("設問は1件以上必要です")
	}
	if s.RewardPoints < 0 {
		return fault.Validation("付与ポイントは0以上で指定してください")
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fault.Validation(fmt.Sprintf("設問 %d 件目の本文が空です", i+1))
		}
		if _, err := NewQuestionType(string(q.Type)); err != nil {
			return err
		}
		if q.Type == QuestionTypeMultipleChoice && len(q.Options) < 2 {
			return fault.Validation(fmt.Sprintf("設問 %d 件目の選択肢は2件以上必要です", i+1))
		}
	}
	return nil
}

// QuestionByID は設問 ID から設問を引く。見つからなければ false。
func (s *Survey) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
