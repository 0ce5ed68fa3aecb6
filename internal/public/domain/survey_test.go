package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

func validSurvey() Survey {
	return Survey{
		ID:    "665f1f77bcf86cd799439011",
		Title: "ご来店アンケート",
		Questions: []Question{
			{ID: "q1", Text: "満足度を教えてください", Type: QuestionTypeRating, Required: true},
			{ID: "q2", Text: "ご意見があればお書きください", Type: QuestionTypeText},
		},
		BusinessID:   "665f1f77bcf86cd799439012",
		IsActive:     true,
		RewardPoints: 10,
	}
}

func TestSurveyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Survey)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Survey) {}},
		{name: "empty title", mutate: func(s *Survey) { s.Title = "  " }, wantErr: true},
		{name: "no questions", mutate: func(s *Survey) { s.Questions = nil }, wantErr: true},
		{name: "negative reward", mutate: func(s *Survey) { s.RewardPoints = -1 }, wantErr: true},
		{name: "empty question text", mutate: func(s *Survey) { s.Questions[0].Text = "" }, wantErr: true},
		{name: "unknown question type", mutate: func(s *Survey) { s.Questions[0].Type = "checkbox" }, wantErr: true},
		{
			name: "multiple choice needs two options",
			mutate: func(s *Survey) {
				s.Questions[0] = Question{ID: "q1", Text: "どこで知りましたか", Type: QuestionTypeMultipleChoice, Options: []string{"SNS"}}
			},
			wantErr: true,
		},
		{
			name: "multiple choice with options",
			mutate: func(s *Survey) {
				s.Questions[0] = Question{ID: "q1", Text: "どこで知りましたか", Type: QuestionTypeMultipleChoice, Options: []string{"SNS", "検索"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			survey := validSurvey()
			tt.mutate(&survey)

			err := survey.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fault.IsKind(err, fault.KindValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewQuestionType(t *testing.T) {
	got, err := NewQuestionType(" rating ")
	require.NoError(t, err)
	assert.Equal(t, QuestionTypeRating, got)

	_, err = NewQuestionType("slider")
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestQuestionByID(t *testing.T) {
	survey := validSurvey()

	q, ok := survey.QuestionByID("q2")
	require.True(t, ok)
	assert.Equal(t, "q2", q.ID)

	_, ok = survey.QuestionByID("q9")
	assert.False(t, ok)
}
