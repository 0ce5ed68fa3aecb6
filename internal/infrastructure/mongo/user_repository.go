package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository は回答者のポイント残高を MongoDB 経由で扱うリポジトリ。
// 残高の変更はすべて単一ドキュメントの原子的更新で行う。
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository は users コレクションを束縛したリポジトリを生成する。
func NewUserRepository(db *mongo.Database, userCollection string) *UserRepository {
	return &UserRepository{users: db.Collection(userCollection)}
}

// CreditPoints は残高へ delta を加算する。レコードがなければ upsert で作る。
func (r *UserRepository) CreditPoints(ctx context.Context, userID string, delta int) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fault.Validation("ユーザーIDが指定されていません")
	}
	if delta < 0 {
		return fault.Validation("加算ポイントは0以上で指定してください")
	}
	update := bson.M{
		"$inc": bson.M{"points": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return wrapWriteError(err, "残高の更新が競合しました")
	}
	return nil
}

// DebitPointsClamped は残高から delta を減算する。結果は必ず 0 以上に収める。
// 台帳のどこであれ減算規則は max(0, balance-delta) のこの一箇所だけ。
func (r *UserRepository) DebitPointsClamped(ctx context.Context, userID string, delta int) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fault.Validation("ユーザーIDが指定されていません")
	}
	if delta < 0 {
		return fault.Validation("減算ポイントは0以上で指定してください")
	}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"points": bson.M{"$max": bson.A{
				0,
				bson.M{"$subtract": bson.A{
					bson.M{"$ifNull": bson.A{"$points", 0}},
					delta,
				}},
			}},
			"updatedAt": "$$NOW",
		}},
	}
	if _, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, pipeline); err != nil {
		return wrapWriteError(err, "残高の更新が競合しました")
	}
	return nil
}

// PointBalance は現在の残高を返す。レコード未作成のユーザーは残高 0 とみなす。
func (r *UserRepository) PointBalance(ctx context.Context, userID string) (int, error) {
	var doc UserDocument
	err := r.users.FindOne(ctx, bson.M{"_id": strings.TrimSpace(userID)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, wrapReadError(err, "ユーザーが見つかりません")
	}
	return doc.Points, nil
}
