package mongo

import (
	"context"
	"errors"
	"strings"

	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// wrapReadError は読み取り系のドライバエラーを fault 分類へ写像する。
func wrapReadError(err error, notFoundMessage string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fault.NotFound(notFoundMessage)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fault.Transient("ストアへの問い合わせがタイムアウトしました", err)
	}
	return fault.Transient("ストアの読み取りに失敗しました", err)
}

// wrapWriteError は書き込み系のドライバエラーを fault 分類へ写像する。
// 一意制約違反は呼び出し側で回復可能な Conflict として返す。
func wrapWriteError(err error, conflictMessage string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fault.Conflict(conflictMessage, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fault.Transient("ストアへの書き込みがタイムアウトしました", err)
	}
	return fault.Transient("ストアの書き込みに失敗しました", err)
}

// parseObjectID はトリム済み 16 進文字列を ObjectID へ変換する。
func parseObjectID(id, notFoundMessage string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fault.NotFound(notFoundMessage)
	}
	return objectID, nil
}
