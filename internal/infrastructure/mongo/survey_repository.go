package mongo

import (
	"context"
	"regexp"
	"strings"
	"time"

	adminapp "github.com/sngm3741/qr-survey-rewards/api/internal/admin/application"
	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SurveyRepository は Public コンテキストのアンケート読み取りを MongoDB 経由で提供する。
type SurveyRepository struct {
	surveys *mongo.Collection
}

// NewSurveyRepository は surveys コレクションを束縛したリポジトリを生成する。
func NewSurveyRepository(db *mongo.Database, surveyCollection string) *SurveyRepository {
	return &SurveyRepository{surveys: db.Collection(surveyCollection)}
}

// FindByID はアンケート ID を ObjectID 化して単一エンティティを復元する。
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*domain.Survey, error) {
	objectID, err := parseObjectID(id, "アンケートが見つかりません")
	if err != nil {
		return nil, err
	}
	var doc SurveyDocument
	if err := r.surveys.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "アンケートが見つかりません")
	}
	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// FindByLegacyCode は旧カスタムコードの完全一致でアンケートを引く。
func (r *SurveyRepository) FindByLegacyCode(ctx context.Context, code string) (*domain.Survey, error) {
	var doc SurveyDocument
	if err := r.surveys.FindOne(ctx, bson.M{"legacyCode": strings.TrimSpace(code)}).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "アンケートが見つかりません")
	}
	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// AdminSurveyRepository は管理コンテキストのアンケート永続化を MongoDB 経由で提供する。
type AdminSurveyRepository struct {
	surveys *mongo.Collection
}

// NewAdminSurveyRepository は surveys コレクションを束縛したリポジトリを生成する。
func NewAdminSurveyRepository(db *mongo.Database, surveyCollection string) *AdminSurveyRepository {
	return &AdminSurveyRepository{surveys: db.Collection(surveyCollection)}
}

// Find は事業者 ID・キーワード条件を Mongo クエリへ変換し、管理画面一覧を返す。
func (r *AdminSurveyRepository) Find(ctx context.Context, filter adminapp.SurveyFilter, paging adminapp.Paging) ([]domain.Survey, error) {
	mongoFilter := bson.M{}
	if businessID := strings.TrimSpace(filter.BusinessID); businessID != "" {
		id, err := primitive.ObjectIDFromHex(businessID)
		if err != nil {
			return nil, fault.Validation("事業者IDの形式が不正です")
		}
		mongoFilter["businessId"] = id
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
		mongoFilter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"questions.text": pattern},
		}
	}
	if filter.ActiveOnly {
		mongoFilter["isActive"] = true
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if paging.Limit > 0 {
		findOpts.SetLimit(int64(paging.Limit))
		if paging.Page > 1 {
			findOpts.SetSkip(int64((paging.Page - 1) * paging.Limit))
		}
	}

	cursor, err := r.surveys.Find(ctx, mongoFilter, findOpts)
	if err != nil {
		return nil, wrapReadError(err, "アンケートが見つかりません")
	}
	defer cursor.Close(ctx)

	surveys := make([]domain.Survey, 0)
	for cursor.Next(ctx) {
		var doc SurveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapReadError(err, "アンケートが見つかりません")
		}
		surveys = append(surveys, mapSurveyDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapReadError(err, "アンケートが見つかりません")
	}
	return surveys, nil
}

// FindByID は管理画面の詳細表示用に単一エンティティを復元する。
func (r *AdminSurveyRepository) FindByID(ctx context.Context, id string) (*domain.Survey, error) {
	objectID, err := parseObjectID(id, "アンケートが見つかりません")
	if err != nil {
		return nil, err
	}
	var doc SurveyDocument
	if err := r.surveys.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "アンケートが見つかりません")
	}
	survey := mapSurveyDocument(doc)
	return &survey, nil
}

// Create はドメインアンケートを Mongo ドキュメントへ変換して新規登録する。
func (r *AdminSurveyRepository) Create(ctx context.Context, survey *domain.Survey) error {
	doc, err := mapDomainSurveyToDocument(survey)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	survey.ID = doc.ID.Hex()
	if _, err := r.surveys.InsertOne(ctx, doc); err != nil {
		return wrapWriteError(err, "アンケートの登録が競合しました")
	}
	return nil
}

// Update は差し替え更新を行う。businessId は更新対象から外して不変条件を守る。
func (r *AdminSurveyRepository) Update(ctx context.Context, survey *domain.Survey) error {
	objectID, err := parseObjectID(survey.ID, "アンケートが見つかりません")
	if err != nil {
		return err
	}
	doc, err := mapDomainSurveyToDocument(survey)
	if err != nil {
		return err
	}
	update := bson.M{
		"title":        doc.Title,
		"questions":    doc.Questions,
		"isActive":     doc.IsActive,
		"rewardPoints": doc.RewardPoints,
		"legacyCode":   doc.LegacyCode,
		"updatedAt":    time.Now().UTC(),
	}
	result, err := r.surveys.UpdateByID(ctx, objectID, bson.M{"$set": update})
	if err != nil {
		return wrapWriteError(err, "アンケートの更新が競合しました")
	}
	if result.MatchedCount == 0 {
		return fault.NotFound("アンケートが見つかりません")
	}
	return nil
}

// mapSurveyDocument は Mongo ドキュメントをドメイン Survey へ変換する。
func mapSurveyDocument(doc SurveyDocument) domain.Survey {
	questions := make([]domain.Question, 0, len(doc.Questions))
	for _, q := range doc.Questions {
		questions = append(questions, domain.Question{
			ID:       q.ID,
			Text:     q.Text,
			Type:     domain.QuestionType(q.Type),
			Options:  q.Options,
			Required: q.Required,
		})
	}
	return domain.Survey{
		ID:           doc.ID.Hex(),
		Title:        doc.Title,
		Questions:    questions,
		BusinessID:   doc.BusinessID.Hex(),
		IsActive:     doc.IsActive,
		RewardPoints: doc.RewardPoints,
		LegacyCode:   doc.LegacyCode,
		CreatedBy:    doc.CreatedBy,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// mapDomainSurveyToDocument はドメイン Survey を Mongo 保存形式に射影する。
func mapDomainSurveyToDocument(survey *domain.Survey) (SurveyDocument, error) {
	businessID, err := primitive.ObjectIDFromHex(strings.TrimSpace(survey.BusinessID))
	if err != nil {
		return SurveyDocument{}, fault.Validation("事業者IDの形式が不正です")
	}
	questions := make([]QuestionDocument, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		questions = append(questions, QuestionDocument{
			ID:       q.ID,
			Text:     q.Text,
			Type:     string(q.Type),
			Options:  q.Options,
			Required: q.Required,
		})
	}

	createdAt := survey.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := survey.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return SurveyDocument{
		Title:        survey.Title,
		Questions:    questions,
		BusinessID:   businessID,
		IsActive:     survey.IsActive,
		RewardPoints: survey.RewardPoints,
		LegacyCode:   survey.LegacyCode,
		CreatedBy:    survey.CreatedBy,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
