package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	adminapp "github.com/sngm3741/qr-survey-rewards/api/internal/admin/application"
	"github.com/sngm3741/qr-survey-rewards/api/internal/interfaces/http/common"
	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
)

// surveyCreateHandler はアンケートを新規作成し、既定のアクセスコードを同時に発行する。
func (h *Handler) surveyCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req createSurveyRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxAdminRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("リクエストの形式が不正です: %v", err),
			})
			return
		}

		if len(req.Questions) > common.MaxQuestionCount {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("質問は %d 件までです", common.MaxQuestionCount),
			})
			return
		}

		questions := make([]domain.Question, 0, len(req.Questions))
		for i, q := range req.Questions {
			questionType, err := domain.NewQuestionType(q.Type)
			if err != nil {
				common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
					"error": fmt.Sprintf("%d 番目の質問: %v", i+1, err),
				})
				return
			}
			id := strings.TrimSpace(q.ID)
			if id == "" {
				id = fmt.Sprintf("q%d", i+1)
			}
			questions = append(questions, domain.Question{
				ID:       id,
				Text:     strings.TrimSpace(q.Text),
				Type:     questionType,
				Options:  q.Options,
				Required: q.Required,
			})
		}

		admin, _ := common.UserFromContext(r.Context())

		cmd := adminapp.CreateSurveyCommand{
			Title:           strings.TrimSpace(req.Title),
			Questions:       questions,
			BusinessID:      strings.TrimSpace(req.BusinessID),
			CreatedBy:       admin.ID,
			CodeDescription: strings.TrimSpace(req.CodeDescription),
		}
		if req.RewardPoints != nil {
			cmd.RewardPoints = *req.RewardPoints
		} else {
			cmd.RewardPoints = h.defaultRewardPoints
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		survey, code, err := h.surveyService.Create(ctx, cmd)
		if err != nil {
			common.WriteFault(h.logger, w, err, "アンケートの作成に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, adminSurveyCreateResponse{
			Survey:     buildAdminSurveyPayload(*survey),
			AccessCode: buildAdminAccessCodePayload(*code),
		})
	}
}

func (h *Handler) surveyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 20)

		filter := adminapp.SurveyFilter{
			BusinessID: strings.TrimSpace(query.Get("businessId")),
			Keyword:    strings.TrimSpace(query.Get("keyword")),
			ActiveOnly: query.Get("active") == "true",
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		surveys, err := h.surveyService.List(ctx, filter, adminapp.Paging{Page: page, Limit: limit})
		if err != nil {
			common.WriteFault(h.logger, w, err, "アンケート一覧の取得に失敗しました")
			return
		}

		items := make([]adminSurveyPayload, 0, len(surveys))
		for _, s := range surveys {
			items = append(items, buildAdminSurveyPayload(s))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, adminSurveyListResponse{Items: items})
	}
}

func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アンケートIDが指定されていません"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		survey, err := h.surveyService.Detail(ctx, idParam)
		if err != nil {
			common.WriteFault(h.logger, w, err, "アンケートの取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildAdminSurveyPayload(*survey))
	}
}

func (h *Handler) surveyUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アンケートIDが指定されていません"})
			return
		}

		defer r.Body.Close()

		var req updateSurveyRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxAdminRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("リクエストの形式が不正です: %v", err),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		survey, err := h.surveyService.Update(ctx, idParam, adminapp.UpdateSurveyCommand{
			Title:        req.Title,
			IsActive:     req.IsActive,
			RewardPoints: req.RewardPoints,
		})
		if err != nil {
			common.WriteFault(h.logger, w, err, "アンケートの更新に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildAdminSurveyPayload(*survey))
	}
}

func (h *Handler) codeIssueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アンケートIDが指定されていません"})
			return
		}

		defer r.Body.Close()

		// 説明は任意。空ボディも許容する。
		var req issueCodeRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxAdminRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil && err != io.EOF {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("リクエストの形式が不正です: %v", err),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		code, err := h.surveyService.IssueCode(ctx, adminapp.IssueCodeCommand{
			SurveyID:    idParam,
			Description: strings.TrimSpace(req.Description),
		})
		if err != nil {
			common.WriteFault(h.logger, w, err, "アクセスコードの発行に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, buildAdminAccessCodePayload(*code))
	}
}

func (h *Handler) codeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アンケートIDが指定されていません"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		codes, err := h.surveyService.ListCodes(ctx, idParam)
		if err != nil {
			common.WriteFault(h.logger, w, err, "アクセスコード一覧の取得に失敗しました")
			return
		}

		items := make([]adminAccessCodePayload, 0, len(codes))
		for _, c := range codes {
			items = append(items, buildAdminAccessCodePayload(c))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, adminCodeListResponse{Items: items})
	}
}

func (h *Handler) codeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "コードIDが指定されていません"})
			return
		}

		defer r.Body.Close()

		var req updateCodeRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxAdminRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("リクエストの形式が不正です: %v", err),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		code, err := h.surveyService.UpdateCode(ctx, idParam, adminapp.UpdateCodeCommand{
			IsActive:    req.IsActive,
			Description: req.Description,
		})
		if err != nil {
			common.WriteFault(h.logger, w, err, "アクセスコードの更新に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildAdminAccessCodePayload(*code))
	}
}
