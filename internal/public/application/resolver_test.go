package application

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

const (
	surveyIDHex  = "665f1f77bcf86cd799439011"
	codeIDHex    = "665f1f77bcf86cd799439021"
	unknownIDHex = "665f1f77bcf86cd799439099"
)

type fakeSurveyRepo struct {
	surveys    map[string]domain.Survey
	byLegacy   map[string]domain.Survey
	findErr    error
	legacyErr  error
	findCalled int
}

func (f *fakeSurveyRepo) FindByID(_ context.Context, id string) (*domain.Survey, error) {
	f.findCalled++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if s, ok := f.surveys[id]; ok {
		return &s, nil
	}
	return nil, fault.NotFound("アンケートが見つかりません")
}

func (f *fakeSurveyRepo) FindByLegacyCode(_ context.Context, code string) (*domain.Survey, error) {
	if f.legacyErr != nil {
		return nil, f.legacyErr
	}
	if s, ok := f.byLegacy[code]; ok {
		return &s, nil
	}
	return nil, fault.NotFound("アンケートが見つかりません")
}

type fakeAccessCodeRepo struct {
	byCode       map[string]domain.AccessCode
	byID         map[string]domain.AccessCode
	incrementErr error
	incremented  []string
}

func (f *fakeAccessCodeRepo) FindByIDOrCode(_ context.Context, idHex string) (*domain.AccessCode, error) {
	if c, ok := f.byID[idHex]; ok {
		return &c, nil
	}
	if c, ok := f.byCode[idHex]; ok {
		return &c, nil
	}
	return nil, fault.NotFound("コードが見つかりません")
}

func (f *fakeAccessCodeRepo) FindByCode(_ context.Context, code string) (*domain.AccessCode, error) {
	if c, ok := f.byCode[code]; ok {
		return &c, nil
	}
	return nil, fault.NotFound("コードが見つかりません")
}

func (f *fakeAccessCodeRepo) IncrementScanCount(_ context.Context, id string) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.incremented = append(f.incremented, id)
	return nil
}

func newResolverFixture() (*fakeSurveyRepo, *fakeAccessCodeRepo, CodeResolverService) {
	surveys := &fakeSurveyRepo{
		surveys: map[string]domain.Survey{
			surveyIDHex: {ID: surveyIDHex, Title: "ご来店アンケート", IsActive: true},
		},
		byLegacy: map[string]domain.Survey{
			"A12B-SHOP-34C": {ID: surveyIDHex, Title: "ご来店アンケート", IsActive: true},
		},
	}
	codes := &fakeAccessCodeRepo{
		byCode: map[string]domain.AccessCode{
			"ABC123": {ID: codeIDHex, Code: "ABC123", SurveyID: surveyIDHex, IsActive: true},
		},
		byID: map[string]domain.AccessCode{},
	}
	logger := log.New(os.Stdout, "[test] ", 0)
	return surveys, codes, NewCodeResolverService(surveys, codes, logger)
}

func TestResolveByAccessCode(t *testing.T) {
	_, codes, resolver := newResolverFixture()

	result, err := resolver.Resolve(context.Background(), " ABC123 ")
	require.NoError(t, err)

	assert.Equal(t, surveyIDHex, result.Survey.ID)
	require.NotNil(t, result.AccessCode)
	assert.Equal(t, "ABC123", result.AccessCode.Code)
	assert.Equal(t, []string{codeIDHex}, codes.incremented)
}

func TestResolveByAccessCodeID(t *testing.T) {
	_, codes, resolver := newResolverFixture()
	codes.byID[codeIDHex] = domain.AccessCode{ID: codeIDHex, Code: "ABC123", SurveyID: surveyIDHex, IsActive: true}

	result, err := resolver.Resolve(context.Background(), codeIDHex)
	require.NoError(t, err)
	require.NotNil(t, result.AccessCode)
	assert.Equal(t, codeIDHex, result.AccessCode.ID)
}

func TestResolveInactiveCodeBlocksFallback(t *testing.T) {
	surveys, codes, resolver := newResolverFixture()
	// コードとして一致した以上、直接リンクや旧コードの規則へは落ちない。
	codes.byCode["A12B-SHOP-34C"] = domain.AccessCode{ID: codeIDHex, Code: "A12B-SHOP-34C", SurveyID: surveyIDHex, IsActive: false}

	_, err := resolver.Resolve(context.Background(), "A12B-SHOP-34C")
	assert.True(t, fault.IsKind(err, fault.KindInactive))
	assert.Zero(t, surveys.findCalled)
	assert.Empty(t, codes.incremented)
}

func TestResolveDirectSurveyLink(t *testing.T) {
	_, codes, resolver := newResolverFixture()

	result, err := resolver.Resolve(context.Background(), surveyIDHex)
	require.NoError(t, err)

	assert.Equal(t, surveyIDHex, result.Survey.ID)
	assert.Nil(t, result.AccessCode)
	assert.Empty(t, codes.incremented)
}

func TestResolveLegacyCode(t *testing.T) {
	_, _, resolver := newResolverFixture()

	result, err := resolver.Resolve(context.Background(), "A12B-SHOP-34C")
	require.NoError(t, err)
	assert.Equal(t, surveyIDHex, result.Survey.ID)
	assert.Nil(t, result.AccessCode)
}

func TestResolveInactiveSurvey(t *testing.T) {
	surveys, _, resolver := newResolverFixture()
	surveys.surveys[surveyIDHex] = domain.Survey{ID: surveyIDHex, IsActive: false}

	_, err := resolver.Resolve(context.Background(), surveyIDHex)
	assert.True(t, fault.IsKind(err, fault.KindInactive))
}

func TestResolveInactiveSurveyBehindCode(t *testing.T) {
	surveys, _, resolver := newResolverFixture()
	surveys.surveys[surveyIDHex] = domain.Survey{ID: surveyIDHex, IsActive: false}

	_, err := resolver.Resolve(context.Background(), "ABC123")
	assert.True(t, fault.IsKind(err, fault.KindInactive))
}

func TestResolveNotFound(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "unknown short code", code: "ZZZZZZ"},
		{name: "unknown object id", code: unknownIDHex},
		{name: "unknown legacy code", code: "B99Z-NAIL-11A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, resolver := newResolverFixture()
			_, err := resolver.Resolve(context.Background(), tt.code)
			assert.True(t, fault.IsKind(err, fault.KindNotFound))
		})
	}
}

func TestResolveEmptyCode(t *testing.T) {
	_, _, resolver := newResolverFixture()

	_, err := resolver.Resolve(context.Background(), "   ")
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestResolveScanCountFailureIgnored(t *testing.T) {
	_, codes, resolver := newResolverFixture()
	codes.incrementErr = errors.New("write concern timeout")

	result, err := resolver.Resolve(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, surveyIDHex, result.Survey.ID)
}

func TestResolveStoreFailurePropagates(t *testing.T) {
	surveys, _, resolver := newResolverFixture()
	surveys.findErr = fault.Transient("ストアへ接続できません", errors.New("timeout"))

	_, err := resolver.Resolve(context.Background(), surveyIDHex)
	assert.True(t, fault.IsKind(err, fault.KindTransient))
}
