package application

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// legacyCodePattern は旧システムで手動発行していたコードの形状。
// 例: A12B-SHOP-34C
var legacyCodePattern = regexp.MustCompile(`^[A-Za-z]\d+[A-Za-z]-[A-Za-z]+-\d+[A-Za-z]$`)

type codeResolverService struct {
	surveys SurveyRepository
	codes   AccessCodeRepository
	logger  *log.Logger
}

// NewCodeResolverService はコード解決ユースケースを生成する。
func NewCodeResolverService(surveys SurveyRepository, codes AccessCodeRepository, logger *log.Logger) CodeResolverService {
	return &codeResolverService{surveys: surveys, codes: codes, logger: logger}
}

// Resolve はコード文字列を有効なアンケートへ解決する。照合は以下の順で行い、
// 最初に一致した規則で確定する。
//  1. ObjectID として妥当なら _id または code フィールドで AccessCode を引く
//  2. code フィールドの完全一致で AccessCode を引く
//  3. AccessCode が見つかったが無効なら、弱い規則へ落とさず CodeInactive で終了
//  4. 未一致かつ ObjectID として妥当なら Survey ID の直接リンクとして解決
//  5. 旧カスタムコードの形状ならアンケート側の legacyCode で照合
func (s *codeResolverService) Resolve(ctx context.Context, code string) (*ResolveResult, error) {
	raw := strings.TrimSpace(code)
	if raw == "" {
		return nil, fault.Validation("コードが指定されていません")
	}

	accessCode, err := s.lookupAccessCode(ctx, raw)
	if err != nil {
		return nil, err
	}

	if accessCode != nil {
		if !accessCode.IsActive {
			return nil, fault.Inactive("このコードは現在利用できません")
		}
		survey, err := s.activeSurveyByID(ctx, accessCode.SurveyID)
		if err != nil {
			return nil, err
		}
		s.countScan(ctx, accessCode)
		return &ResolveResult{Survey: *survey, AccessCode: accessCode}, nil
	}

	if isObjectIDHex(raw) {
		survey, err := s.surveys.FindByID(ctx, raw)
		switch {
		case err == nil:
			if !survey.IsActive {
				return nil, fault.Inactive("このアンケートは現在受付を停止しています")
			}
			return &ResolveResult{Survey: *survey}, nil
		case fault.IsKind(err, fault.KindNotFound):
			// 直接リンク不一致。カスタムコード照合へ続行。
		default:
			return nil, err
		}
	}

	if legacyCodePattern.MatchString(raw) {
		survey, err := s.surveys.FindByLegacyCode(ctx, raw)
		switch {
		case err == nil:
			if !survey.IsActive {
				return nil, fault.Inactive("このアンケートは現在受付を停止しています")
			}
			return &ResolveResult{Survey: *survey}, nil
		case fault.IsKind(err, fault.KindNotFound):
		default:
			return nil, err
		}
	}

	return nil, fault.NotFound("コードに対応するアンケートが見つかりません")
}

// lookupAccessCode は規則 1〜2 を適用する。存在しない場合は nil を返し、
// それ以外のストア障害のみエラーとする。
func (s *codeResolverService) lookupAccessCode(ctx context.Context, raw string) (*domain.AccessCode, error) {
	var (
		accessCode *domain.AccessCode
		err        error
	)
	if isObjectIDHex(raw) {
		accessCode, err = s.codes.FindByIDOrCode(ctx, raw)
	} else {
		accessCode, err = s.codes.FindByCode(ctx, raw)
	}
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return accessCode, nil
}

func (s *codeResolverService) activeSurveyByID(ctx context.Context, surveyID string) (*domain.Survey, error) {
	survey, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			// コードはあるのに対象アンケートが消えている。データ不整合として NotFound を返す。
			return nil, fault.NotFound("コードに対応するアンケートが見つかりません")
		}
		return nil, err
	}
	if !survey.IsActive {
		return nil, fault.Inactive("このアンケートは現在受付を停止しています")
	}
	return survey, nil
}

// countScan は走査カウンタを加算する。失敗しても解決結果には影響させない。
func (s *codeResolverService) countScan(ctx context.Context, accessCode *domain.AccessCode) {
	if err := s.codes.IncrementScanCount(ctx, accessCode.ID); err != nil && s.logger != nil {
		s.logger.Printf("走査カウンタの更新に失敗 code=%s err=%v", accessCode.Code, err)
	}
}

func isObjectIDHex(value string) bool {
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}
