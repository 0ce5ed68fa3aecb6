package domain

import "time"

// AccessCode は QR 画像として配布される不透明コードとアンケートの対応。
// Code はストア全体で一意。
type AccessCode struct {
	ID          string
	Code        string
	SurveyID    string
	BusinessID  string
	IsActive    bool
	Description string
	ScanCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
