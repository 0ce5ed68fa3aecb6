package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccessCodeRepository はアクセスコードを MongoDB 経由で扱うリポジトリ。
// Public/Admin 双方のポートを同じコレクションに対して満たす。
type AccessCodeRepository struct {
	codes *mongo.Collection
}

// NewAccessCodeRepository は access_codes コレクションを束縛したリポジトリを生成する。
func NewAccessCodeRepository(db *mongo.Database, codeCollection string) *AccessCodeRepository {
	return &AccessCodeRepository{codes: db.Collection(codeCollection)}
}

// FindByIDOrCode は ObjectID 16進表現を _id と code の両方に対して照合する。
// ID をそのままコードとして配布していた時期の互換経路。
func (r *AccessCodeRepository) FindByIDOrCode(ctx context.Context, idHex string) (*domain.AccessCode, error) {
	trimmed := strings.TrimSpace(idHex)
	objectID, err := primitive.ObjectIDFromHex(trimmed)
	if err != nil {
		return nil, fault.NotFound("コードが見つかりません")
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"_id": objectID},
		bson.M{"code": trimmed},
	}}
	var doc AccessCodeDocument
	if err := r.codes.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "コードが見つかりません")
	}
	code := mapAccessCodeDocument(doc)
	return &code, nil
}

// FindByCode は code フィールドの完全一致でアクセスコードを引く。
func (r *AccessCodeRepository) FindByCode(ctx context.Context, code string) (*domain.AccessCode, error) {
	var doc AccessCodeDocument
	if err := r.codes.FindOne(ctx, bson.M{"code": strings.TrimSpace(code)}).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "コードが見つかりません")
	}
	result := mapAccessCodeDocument(doc)
	return &result, nil
}

// IncrementScanCount は走査カウンタを 1 加算する。
func (r *AccessCodeRepository) IncrementScanCount(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id, "コードが見つかりません")
	if err != nil {
		return err
	}
	_, err = r.codes.UpdateByID(ctx, objectID, bson.M{
		"$inc": bson.M{"scanCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return wrapWriteError(err, "走査カウンタの更新が競合しました")
	}
	return nil
}

// Create は新規アクセスコードを登録する。code の一意制約違反は Conflict として返す。
func (r *AccessCodeRepository) Create(ctx context.Context, code *domain.AccessCode) error {
	doc, err := mapDomainAccessCodeToDocument(code)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	code.ID = doc.ID.Hex()
	if _, err := r.codes.InsertOne(ctx, doc); err != nil {
		return wrapWriteError(err, "同じコードが既に存在します")
	}
	return nil
}

// FindByID は管理画面用に単一コードを復元する。
func (r *AccessCodeRepository) FindByID(ctx context.Context, id string) (*domain.AccessCode, error) {
	objectID, err := parseObjectID(id, "コードが見つかりません")
	if err != nil {
		return nil, err
	}
	var doc AccessCodeDocument
	if err := r.codes.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "コードが見つかりません")
	}
	code := mapAccessCodeDocument(doc)
	return &code, nil
}

// FindBySurvey は対象アンケートに紐づくコードを発行順で返す。
func (r *AccessCodeRepository) FindBySurvey(ctx context.Context, surveyID string) ([]domain.AccessCode, error) {
	objectID, err := parseObjectID(surveyID, "アンケートが見つかりません")
	if err != nil {
		return nil, err
	}
	cursor, err := r.codes.Find(ctx, bson.M{"surveyId": objectID})
	if err != nil {
		return nil, wrapReadError(err, "コードが見つかりません")
	}
	defer cursor.Close(ctx)

	codes := make([]domain.AccessCode, 0)
	for cursor.Next(ctx) {
		var doc AccessCodeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapReadError(err, "コードが見つかりません")
		}
		codes = append(codes, mapAccessCodeDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapReadError(err, "コードが見つかりません")
	}
	return codes, nil
}

// Update は有効状態と説明の差し替え更新を行う。code 自体は変更しない。
func (r *AccessCodeRepository) Update(ctx context.Context, code *domain.AccessCode) error {
	objectID, err := parseObjectID(code.ID, "コードが見つかりません")
	if err != nil {
		return err
	}
	update := bson.M{
		"isActive":    code.IsActive,
		"description": code.Description,
		"updatedAt":   time.Now().UTC(),
	}
	result, err := r.codes.UpdateByID(ctx, objectID, bson.M{"$set": update})
	if err != nil {
		return wrapWriteError(err, "コードの更新が競合しました")
	}
	if result.MatchedCount == 0 {
		return fault.NotFound("コードが見つかりません")
	}
	return nil
}

// mapAccessCodeDocument は Mongo ドキュメントをドメイン AccessCode へ変換する。
func mapAccessCodeDocument(doc AccessCodeDocument) domain.AccessCode {
	return domain.AccessCode{
		ID:          doc.ID.Hex(),
		Code:        doc.Code,
		SurveyID:    doc.SurveyID.Hex(),
		BusinessID:  doc.BusinessID.Hex(),
		IsActive:    doc.IsActive,
		Description: doc.Description,
		ScanCount:   doc.ScanCount,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// mapDomainAccessCodeToDocument はドメイン AccessCode を Mongo 保存形式に射影する。
func mapDomainAccessCodeToDocument(code *domain.AccessCode) (AccessCodeDocument, error) {
	surveyID, err := primitive.ObjectIDFromHex(strings.TrimSpace(code.SurveyID))
	if err != nil {
		return AccessCodeDocument{}, fault.Validation("アンケートIDの形式が不正です")
	}
	businessID, err := primitive.ObjectIDFromHex(strings.TrimSpace(code.BusinessID))
	if err != nil {
		return AccessCodeDocument{}, fault.Validation("事業者IDの形式が不正です")
	}

	createdAt := code.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := code.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return AccessCodeDocument{
		Code:        strings.TrimSpace(code.Code),
		SurveyID:    surveyID,
		BusinessID:  businessID,
		IsActive:    code.IsActive,
		Description: code.Description,
		ScanCount:   code.ScanCount,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
