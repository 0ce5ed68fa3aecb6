package application

import (
	"context"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
)

// SurveyRepository は Public コンテキストでアンケートを読み取るためのポート。
type SurveyRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Survey, error)
	FindByLegacyCode(ctx context.Context, code string) (*domain.Survey, error)
}

// AccessCodeRepository はアクセスコードの解決と走査カウンタ更新を提供するポート。
type AccessCodeRepository interface {
	// FindByIDOrCode は ObjectID 16進表現を _id と code の両方に対して照合する。
	// 過去に ID をそのままコードとして配布していた互換のため。
	FindByIDOrCode(ctx context.Context, idHex string) (*domain.AccessCode, error)
	FindByCode(ctx context.Context, code string) (*domain.AccessCode, error)
	IncrementScanCount(ctx context.Context, id string) error
}

// ResponseRepository は回答の登録と重複回復の読み取りを提供するポート。
type ResponseRepository interface {
	// Insert は (surveyId, respondentKey) の一意制約付きで回答を登録する。
	// 制約違反は fault.KindConflict として返る。
	Insert(ctx context.Context, response *domain.Response) error
	FindBySurveyAndRespondent(ctx context.Context, surveyID, respondentKey string) (*domain.Response, error)
}

// ResolveResult はコード解決の成果物。AccessCode は直接リンク解決時には nil。
type ResolveResult struct {
	Survey     domain.Survey
	AccessCode *domain.AccessCode
}

// CodeResolverService はアクセスコードを有効なアンケートへ解決するユースケース。
type CodeResolverService interface {
	Resolve(ctx context.Context, code string) (*ResolveResult, error)
}

// SubmitCommand は回答提出の入力。UserID は認証済みの場合のみ入る。
type SubmitCommand struct {
	SurveyID string
	Answers  []domain.Answer
	UserID   string
	Customer *domain.Customer
}

// SubmitResult は回答提出の結果。重複提出時は IsExisting=true かつ RewardPoints=0。
type SubmitResult struct {
	Response   domain.Response
	IsExisting bool
	// RewardPoints は今回の提出で保留になったポイント。重複時は常に 0。
	RewardPoints int
}

// ResponseRecorderService は回答を (survey, respondent) ごとに一度だけ記録するユースケース。
type ResponseRecorderService interface {
	Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error)
}
