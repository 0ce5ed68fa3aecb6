package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexCollections は EnsureIndexes が対象とするコレクション名の束。
type IndexCollections struct {
	Surveys     string
	AccessCodes string
	Responses   string
	PointAudit  string
}

// EnsureIndexes は重複排除とコード一意性を支えるインデックスを起動時に整える。
// 宣言的なので再実行しても安全。
func EnsureIndexes(ctx context.Context, db *mongo.Database, cols IndexCollections) error {
	// コードはストア全体で一意。
	_, err := db.Collection(cols.AccessCodes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_code"),
	})
	if err != nil {
		return fmt.Errorf("access_codes インデックス作成に失敗: %w", err)
	}

	// (surveyId, respondentKey) は respondentKey を持つドキュメントに限って一意。
	// 複合インデックスの sparse 指定は surveyId があるだけで索引対象になってしまうため、
	// 部分インデックスで匿名回答を確実に除外する。
	_, err = db.Collection(cols.Responses).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "surveyId", Value: 1}, {Key: "respondentKey", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("uniq_survey_respondent").
			SetPartialFilterExpression(bson.M{"respondentKey": bson.M{"$exists": true}}),
	})
	if err != nil {
		return fmt.Errorf("responses インデックス作成に失敗: %w", err)
	}

	// 旧カスタムコードは設定されているアンケートに限って一意。
	_, err = db.Collection(cols.Surveys).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "legacyCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_legacy_code"),
	})
	if err != nil {
		return fmt.Errorf("surveys インデックス作成に失敗: %w", err)
	}

	_, err = db.Collection(cols.PointAudit).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_created_at"),
	})
	if err != nil {
		return fmt.Errorf("point_audit インデックス作成に失敗: %w", err)
	}

	return nil
}
