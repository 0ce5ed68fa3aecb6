// seed はローカル開発用のデモデータ投入ツール。
// アンケート・アクセスコード・ユーザー・回答をまとめて作成する。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	mongodoc "github.com/sngm3741/qr-survey-rewards/api/internal/infrastructure/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedOptions struct {
	surveyCount     int
	responseCount   int
	dropCollections bool
	randomSeed      int64
}

type collections struct {
	surveys     string
	accessCodes string
	responses   string
	users       string
	pointAudit  string
}

type questionDocument struct {
	ID       string   `bson:"id"`
	Text     string   `bson:"text"`
	Type     string   `bson:"type"`
	Options  []string `bson:"options,omitempty"`
	Required bool     `bson:"required"`
}

type surveyDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Title        string             `bson:"title"`
	Questions    []questionDocument `bson:"questions"`
	BusinessID   primitive.ObjectID `bson:"businessId"`
	IsActive     bool               `bson:"isActive"`
	RewardPoints int                `bson:"rewardPoints"`
	LegacyCode   string             `bson:"legacyCode,omitempty"`
	CreatedBy    string             `bson:"createdBy,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type accessCodeDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Code        string             `bson:"code"`
	SurveyID    primitive.ObjectID `bson:"surveyId"`
	BusinessID  primitive.ObjectID `bson:"businessId"`
	IsActive    bool               `bson:"isActive"`
	Description string             `bson:"description,omitempty"`
	ScanCount   int                `bson:"scanCount"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type answerDocument struct {
	QuestionID string `bson:"questionId"`
	Value      any    `bson:"value"`
}

type customerDocument struct {
	Name  string `bson:"name,omitempty"`
	Email string `bson:"email,omitempty"`
}

type responseDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	SurveyID       primitive.ObjectID `bson:"surveyId"`
	BusinessID     primitive.ObjectID `bson:"businessId"`
	Answers        []answerDocument   `bson:"answers"`
	UserID         string             `bson:"userId,omitempty"`
	RespondentKey  string             `bson:"respondentKey,omitempty"`
	Customer       *customerDocument  `bson:"customer,omitempty"`
	RewardPoints   int                `bson:"rewardPoints"`
	PointsApproved *bool              `bson:"pointsApproved"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name,omitempty"`
	Points    int       `bson:"points"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var surveyTitles = []string{
	"ご来店アンケート",
	"接客満足度調査",
	"新メニューに関するアンケート",
	"店内環境についてのアンケート",
	"リピート意向調査",
}

var textAnswers = []string{
	"とても良かったです",
	"スタッフの対応が丁寧でした",
	"また利用したいと思います",
	"価格がもう少し安いと嬉しいです",
	"提供までの時間が少し長く感じました",
}

func main() {
	opts := parseFlags()

	// .env はローカル開発用。存在しなければ環境変数のみで動く。
	_ = godotenv.Load()

	cols := collections{
		surveys:     envOrDefault("SURVEY_COLLECTION", "surveys"),
		accessCodes: envOrDefault("ACCESS_CODE_COLLECTION", "access_codes"),
		responses:   envOrDefault("RESPONSE_COLLECTION", "responses"),
		users:       envOrDefault("USER_COLLECTION", "users"),
		pointAudit:  envOrDefault("AUDIT_COLLECTION", "point_audit"),
	}

	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "qr-survey-rewards")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		if err := dropCollections(ctx, db, cols); err != nil {
			log.Fatalf("コレクション削除に失敗しました: %v", err)
		}
		log.Printf("既存コレクションを削除しました")
	}

	if err := mongodoc.EnsureIndexes(ctx, db, mongodoc.IndexCollections{
		Surveys:     cols.surveys,
		AccessCodes: cols.accessCodes,
		Responses:   cols.responses,
		PointAudit:  cols.pointAudit,
	}); err != nil {
		log.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	now := time.Now()

	users := seedUsers(now)
	if err := insertMany(ctx, db.Collection(cols.users), asAny(users)); err != nil {
		log.Fatalf("ユーザー投入に失敗しました: %v", err)
	}
	log.Printf("ユーザーを %d 件投入しました", len(users))

	surveys, codes := buildSurveys(rng, now, opts.surveyCount)
	if err := insertMany(ctx, db.Collection(cols.surveys), asAny(surveys)); err != nil {
		log.Fatalf("アンケート投入に失敗しました: %v", err)
	}
	if err := insertMany(ctx, db.Collection(cols.accessCodes), asAny(codes)); err != nil {
		log.Fatalf("アクセスコード投入に失敗しました: %v", err)
	}
	log.Printf("アンケートを %d 件、アクセスコードを %d 件投入しました", len(surveys), len(codes))

	responses := buildResponses(rng, now, surveys, users, opts.responseCount)
	if err := insertMany(ctx, db.Collection(cols.responses), asAny(responses)); err != nil {
		log.Fatalf("回答投入に失敗しました: %v", err)
	}
	log.Printf("回答を %d 件投入しました", len(responses))

	log.Printf("デモ用アクセスコード: %s", codes[0].Code)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.surveyCount, "surveys", 5, "投入するアンケート数")
	flag.IntVar(&opts.responseCount, "responses", 20, "投入する回答数")
	flag.BoolVar(&opts.dropCollections, "drop", false, "投入前に既存コレクションを削除する")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード")
	flag.Parse()

	if opts.surveyCount < 1 {
		opts.surveyCount = 1
	}
	if opts.responseCount < 0 {
		opts.responseCount = 0
	}
	return opts
}

func dropCollections(ctx context.Context, db *mongo.Database, cols collections) error {
	for _, name := range []string{cols.surveys, cols.accessCodes, cols.responses, cols.users, cols.pointAudit} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("%s の削除に失敗: %w", name, err)
		}
	}
	return nil
}

func seedUsers(now time.Time) []userDocument {
	return []userDocument{
		{ID: "user-demo-1", Name: "デモユーザー1", Points: 0, CreatedAt: now, UpdatedAt: now},
		{ID: "user-demo-2", Name: "デモユーザー2", Points: 30, CreatedAt: now, UpdatedAt: now},
		{ID: "user-demo-3", Name: "デモユーザー3", Points: 120, CreatedAt: now, UpdatedAt: now},
	}
}

func buildSurveys(rng *rand.Rand, now time.Time, count int) ([]surveyDocument, []accessCodeDocument) {
	businessID := primitive.NewObjectID()

	surveys := make([]surveyDocument, 0, count)
	codes := make([]accessCodeDocument, 0, count+1)

	for i := 0; i < count; i++ {
		surveyID := primitive.NewObjectID()
		createdAt := now.Add(-time.Duration(count-i) * 24 * time.Hour)

		survey := surveyDocument{
			ID:    surveyID,
			Title: surveyTitles[i%len(surveyTitles)],
			Questions: []questionDocument{
				{ID: "q1", Text: "本日の満足度を教えてください", Type: "rating", Required: true},
				{ID: "q2", Text: "どちらでこの店舗を知りましたか", Type: "multiple_choice", Options: []string{"SNS", "検索", "紹介", "通りがかり"}, Required: true},
				{ID: "q3", Text: "ご意見・ご感想があればお書きください", Type: "text", Required: false},
			},
			BusinessID:   businessID,
			IsActive:     true,
			RewardPoints: 10 * (1 + rng.Intn(3)),
			CreatedBy:    "seed",
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
		// 1件目は旧システムから移行した体のアンケートにする。
		if i == 0 {
			survey.LegacyCode = "A1B-CAFE-12X"
		}
		surveys = append(surveys, survey)

		code := accessCodeDocument{
			ID:          primitive.NewObjectID(),
			Code:        randomCode(rng, 6),
			SurveyID:    surveyID,
			BusinessID:  businessID,
			IsActive:    true,
			Description: "レジ横ポスター",
			ScanCount:   rng.Intn(50),
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		// 最初のコードは覚えやすい固定値にして動作確認を楽にする。
		if i == 0 {
			code.Code = "ABC123"
		}
		codes = append(codes, code)
	}

	// 無効化済みコードも 1 件混ぜておく。
	disabled := accessCodeDocument{
		ID:          primitive.NewObjectID(),
		Code:        randomCode(rng, 6),
		SurveyID:    surveys[0].ID,
		BusinessID:  businessID,
		IsActive:    false,
		Description: "旧テーブルPOP（撤去済み）",
		ScanCount:   rng.Intn(200),
		CreatedAt:   now.Add(-90 * 24 * time.Hour),
		UpdatedAt:   now,
	}
	codes = append(codes, disabled)

	return surveys, codes
}

func buildResponses(rng *rand.Rand, now time.Time, surveys []surveyDocument, users []userDocument, count int) []responseDocument {
	docs := make([]responseDocument, 0, count)
	approved := true
	// (surveyId, respondentKey) にはユニークインデックスがあるため、
	// 衝突する組み合わせは匿名回答へ切り替える。
	seen := make(map[string]struct{})

	for i := 0; i < count; i++ {
		survey := surveys[rng.Intn(len(surveys))]
		createdAt := now.Add(-time.Duration(rng.Intn(72)) * time.Hour)

		doc := responseDocument{
			ID:         primitive.NewObjectID(),
			SurveyID:   survey.ID,
			BusinessID: survey.BusinessID,
			Answers: []answerDocument{
				{QuestionID: "q1", Value: 1 + rng.Intn(5)},
				{QuestionID: "q2", Value: []string{"SNS", "検索", "紹介", "通りがかり"}[rng.Intn(4)]},
				{QuestionID: "q3", Value: textAnswers[rng.Intn(len(textAnswers))]},
			},
			RewardPoints: survey.RewardPoints,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}

		switch i % 3 {
		case 0:
			user := users[rng.Intn(len(users))]
			doc.UserID = user.ID
			doc.RespondentKey = "user:" + user.ID
			doc.PointsApproved = &approved
		case 1:
			email := fmt.Sprintf("guest%d@example.com", i)
			doc.Customer = &customerDocument{Name: fmt.Sprintf("ゲスト%d", i), Email: email}
			doc.RespondentKey = fmt.Sprintf("customer:ゲスト%d|%s", i, email)
		}

		if doc.RespondentKey != "" {
			dedupKey := survey.ID.Hex() + "|" + doc.RespondentKey
			if _, exists := seen[dedupKey]; exists {
				doc.UserID = ""
				doc.RespondentKey = ""
				doc.PointsApproved = nil
				doc.Customer = &customerDocument{Name: "匿名のお客様 " + createdAt.Format("2006/01/02 15:04")}
			} else {
				seen[dedupKey] = struct{}{}
			}
		} else {
			doc.Customer = &customerDocument{Name: "匿名のお客様 " + createdAt.Format("2006/01/02 15:04")}
		}

		docs = append(docs, doc)
	}
	return docs
}

func randomCode(rng *rand.Rand, length int) string {
	var builder strings.Builder
	for i := 0; i < length; i++ {
		builder.WriteByte(codeAlphabet[rng.Intn(len(codeAlphabet))])
	}
	return builder.String()
}

func insertMany(ctx context.Context, col *mongo.Collection, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

func asAny[T any](items []T) []any {
	docs := make([]any, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}
	return docs
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
