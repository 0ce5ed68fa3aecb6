package mongo

import (
	"context"
	"errors"
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

// ResponseRepository はアンケート回答を MongoDB 経由で扱うリポジトリ。
// 重複排除は (surveyId, respondentKey) の部分一意インデックスに委ねる。
type ResponseRepository struct {
	responses *mongo.Collection
}

// NewResponseRepository は responses コレクションを束縛したリポジトリを生成する。
func NewResponseRepository(db *mongo.Database, responseCollection string) *ResponseRepository {
	return &ResponseRepository{responses: db.Collection(responseCollection)}
}

// Insert は回答を新規登録する。一意制約違反は Conflict として返し、
// 呼び出し側が既存回答の読み戻しで回復する。
func (r *ResponseRepository) Insert(ctx context.Context, response *domain.Response) error {
	doc, err := mapDomainResponseToDocument(response)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	response.ID = doc.ID.Hex()
	if _, err := r.responses.InsertOne(ctx, doc); err != nil {
		return wrapWriteError(err, "同一回答者の回答が既に存在します")
	}
	return nil
}

// FindBySurveyAndRespondent は一意インデックスと同じキーで既存回答を引く。
func (r *ResponseRepository) FindBySurveyAndRespondent(ctx context.Context, surveyID, respondentKey string) (*domain.Response, error) {
	objectID, err := parseObjectID(surveyID, "回答が見つかりません")
	if err != nil {
		return nil, err
	}
	var doc ResponseDocument
	filter := bson.M{"surveyId": objectID, "respondentKey": respondentKey}
	if err := r.responses.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "回答が見つかりません")
	}
	response := mapResponseDocument(doc)
	return &response, nil
}

// FindByID は回答 ID から単一エンティティを復元する。
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*domain.Response, error) {
	objectID, err := parseObjectID(id, "回答が見つかりません")
	if err != nil {
		return nil, err
	}
	var doc ResponseDocument
	if err := r.responses.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, wrapReadError(err, "回答が見つかりません")
	}
	response := mapResponseDocument(doc)
	return &response, nil
}

// FindBySurvey は対象アンケートの回答を新しい順で返す。
func (r *ResponseRepository) FindBySurvey(ctx context.Context, surveyID string, paging adminapp.Paging) ([]domain.Response, error) {
	objectID, err := parseObjectID(surveyID, "アンケートが見つかりません")
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if paging.Limit > 0 {
		findOpts.SetLimit(int64(paging.Limit))
		if paging.Page > 1 {
			findOpts.SetSkip(int64((paging.Page - 1) * paging.Limit))
		}
	}

	cursor, err := r.responses.Find(ctx, bson.M{"surveyId": objectID}, findOpts)
	if err != nil {
		return nil, wrapReadError(err, "回答が見つかりません")
	}
	defer cursor.Close(ctx)

	responses := make([]domain.Response, 0)
	for cursor.Next(ctx) {
		var doc ResponseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapReadError(err, "回答が見つかりません")
		}
		responses = append(responses, mapResponseDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapReadError(err, "回答が見つかりません")
	}
	return responses, nil
}

// MarkApproved は未承認の回答のみを承認済みへ原子的に遷移させる。
// 対象が存在しても既に承認済みなら AlreadyApproved を返す。
func (r *ResponseRepository) MarkApproved(ctx context.Context, id string, points int, adminID string, at time.Time) (*domain.Response, error) {
	objectID, err := parseObjectID(id, "回答が見つかりません")
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": objectID, "pointsApproved": bson.M{"$ne": true}}
	update := bson.M{
		"$set": bson.M{
			"pointsApproved": true,
			"rewardPoints":   points,
			"approvedBy":     adminID,
			"approvedAt":     at,
			"updatedAt":      at,
		},
		"$unset": bson.M{"rejectedBy": "", "rejectedAt": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc ResponseDocument
	err = r.responses.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		response := mapResponseDocument(doc)
		return &response, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, wrapWriteError(err, "回答の更新が競合しました")
	}

	// フィルタ不一致の理由を区別する。存在していれば承認済みが原因。
	count, countErr := r.responses.CountDocuments(ctx, bson.M{"_id": objectID})
	if countErr != nil {
		return nil, wrapReadError(countErr, "回答が見つかりません")
	}
	if count > 0 {
		return nil, fault.AlreadyApproved("この回答のポイントは承認済みです")
	}
	return nil, fault.NotFound("回答が見つかりません")
}

// MarkRejected は回答を却下済みへ原子的に遷移させ、遷移前の状態を返す。
func (r *ResponseRepository) MarkRejected(ctx context.Context, id string, adminID string, at time.Time) (*domain.Response, error) {
	objectID, err := parseObjectID(id, "回答が見つかりません")
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"pointsApproved": false,
			"rejectedBy":     adminID,
			"rejectedAt":     at,
			"updatedAt":      at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var doc ResponseDocument
	if err := r.responses.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.NotFound("回答が見つかりません")
		}
		return nil, wrapWriteError(err, "回答の更新が競合しました")
	}
	previous := mapResponseDocument(doc)
	return &previous, nil
}

// Delete は回答を物理削除する。ポイントの巻き戻しは呼び出し側の責務。
func (r *ResponseRepository) Delete(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id, "回答が見つかりません")
	if err != nil {
		return err
	}
	result, err := r.responses.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return wrapWriteError(err, "回答の削除が競合しました")
	}
	if result.DeletedCount == 0 {
		return fault.NotFound("回答が見つかりません")
	}
	return nil
}

// mapResponseDocument は Mongo ドキュメントをドメイン Response へ変換する。
func mapResponseDocument(doc ResponseDocument) domain.Response {
	answers := make([]domain.Answer, 0, len(doc.Answers))
	for _, a := range doc.Answers {
		answers = append(answers, domain.Answer{QuestionID: a.QuestionID, Value: a.Value})
	}
	var customer *domain.Customer
	if doc.Customer != nil {
		customer = &domain.Customer{Name: doc.Customer.Name, Email: doc.Customer.Email}
	}
	return domain.Response{
		ID:             doc.ID.Hex(),
		SurveyID:       doc.SurveyID.Hex(),
		BusinessID:     doc.BusinessID.Hex(),
		Answers:        answers,
		UserID:         doc.UserID,
		RespondentKey:  doc.RespondentKey,
		Customer:       customer,
		RewardPoints:   doc.RewardPoints,
		PointsApproved: doc.PointsApproved,
		ApprovedBy:     doc.ApprovedBy,
		ApprovedAt:     doc.ApprovedAt,
		RejectedBy:     doc.RejectedBy,
		RejectedAt:     doc.RejectedAt,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

// mapDomainResponseToDocument はドメイン Response を Mongo 保存形式に射影する。
func mapDomainResponseToDocument(response *domain.Response) (ResponseDocument, error) {
	surveyID, err := primitive.ObjectIDFromHex(strings.TrimSpace(response.SurveyID))
	if err != nil {
		return ResponseDocument{}, fault.Validation("アンケートIDの形式が不正です")
	}
	businessID, err := primitive.ObjectIDFromHex(strings.TrimSpace(response.BusinessID))
	if err != nil {
		return ResponseDocument{}, fault.Validation("事業者IDの形式が不正です")
	}

	answers := make([]AnswerDocument, 0, len(response.Answers))
	for _, a := range response.Answers {
		answers = append(answers, AnswerDocument{QuestionID: a.QuestionID, Value: a.Value})
	}
	var customer *CustomerDocument
	if response.Customer != nil {
		customer = &CustomerDocument{Name: response.Customer.Name, Email: response.Customer.Email}
	}

	return ResponseDocument{
		SurveyID:       surveyID,
		BusinessID:     businessID,
		Answers:        answers,
		UserID:         response.UserID,
		RespondentKey:  response.RespondentKey,
		Customer:       customer,
		RewardPoints:   response.RewardPoints,
		PointsApproved: response.PointsApproved,
		ApprovedBy:     response.ApprovedBy,
		ApprovedAt:     response.ApprovedAt,
		RejectedBy:     response.RejectedBy,
		RejectedAt:     response.RejectedAt,
		CreatedAt:      response.CreatedAt,
		UpdatedAt:      response.UpdatedAt,
	}, nil
}
