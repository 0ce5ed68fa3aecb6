package mongo

import (
	"context"

	admindomain "github.com/sngm3741/qr-survey-rewards/api/internal/admin/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditTrailRepository はポイント台帳の監査ログを MongoDB 経由で扱うリポジトリ。
// 追記専用。更新・削除の操作は提供しない。
type AuditTrailRepository struct {
	entries *mongo.Collection
}

// NewAuditTrailRepository は point_audit コレクションを束縛したリポジトリを生成する。
func NewAuditTrailRepository(db *mongo.Database, auditCollection string) *AuditTrailRepository {
	return &AuditTrailRepository{entries: db.Collection(auditCollection)}
}

// Record は監査エントリを 1 件追記する。
func (r *AuditTrailRepository) Record(ctx context.Context, entry admindomain.AuditEntry) error {
	doc := AuditEntryDocument{
		ID:          primitive.NewObjectID(),
		EventID:     entry.EventID,
		Action:      string(entry.Action),
		ActorID:     entry.ActorID,
		ResponseID:  entry.ResponseID,
		SurveyID:    entry.SurveyID,
		UserID:      entry.UserID,
		PointsDelta: entry.PointsDelta,
		Details:     entry.Details,
		CreatedAt:   entry.CreatedAt,
	}
	if _, err := r.entries.InsertOne(ctx, doc); err != nil {
		return wrapWriteError(err, "監査ログの追記が競合しました")
	}
	return nil
}

// Recent は監査エントリを新しい順で返す。
func (r *AuditTrailRepository) Recent(ctx context.Context, limit int) ([]admindomain.AuditEntry, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cursor, err := r.entries.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, wrapReadError(err, "監査ログが見つかりません")
	}
	defer cursor.Close(ctx)

	entries := make([]admindomain.AuditEntry, 0)
	for cursor.Next(ctx) {
		var doc AuditEntryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapReadError(err, "監査ログが見つかりません")
		}
		entries = append(entries, admindomain.AuditEntry{
			EventID:     doc.EventID,
			Action:      admindomain.AuditAction(doc.Action),
			ActorID:     doc.ActorID,
			ResponseID:  doc.ResponseID,
			SurveyID:    doc.SurveyID,
			UserID:      doc.UserID,
			PointsDelta: doc.PointsDelta,
			Details:     doc.Details,
			CreatedAt:   doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapReadError(err, "監査ログが見つかりません")
	}
	return entries, nil
}
