package public

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/qr-survey-rewards/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/qr-survey-rewards/api/internal/public/application"
	"github.com/sngm3741/qr-survey-rewards/api/internal/public/domain"
	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

// resolveCodeHandler は QR コード読み取り後の入口。コードを有効なアンケートへ解決する。
func (h *Handler) resolveCodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codeParam := strings.TrimSpace(chi.URLParam(r, "code"))
		if codeParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "コードが指定されていません"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.resolver.Resolve(ctx, codeParam)
		if err != nil {
			common.WriteFault(h.logger, w, err, "コードの解決に失敗しました")
			return
		}

		payload := resolveResponse{Survey: buildSurveyPayload(result.Survey)}
		if result.AccessCode != nil {
			code := buildAccessCodePayload(*result.AccessCode)
			payload.AccessCode = &code
		}
		common.WriteJSON(h.logger, w, http.StatusOK, payload)
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

		survey, err := h.surveys.FindByID(ctx, idParam)
		if err != nil {
			common.WriteFault(h.logger, w, err, "アンケートの取得に失敗しました")
			return
		}
		if !survey.IsActive {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "このアンケートは現在受付を停止しています"})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildSurveyPayload(*survey))
	}
}

// submitHandler は回答提出を受け付ける。形式上問題のない ID への提出失敗は
// クライアント側のフローを単純に保つため 500 にせず success:false で返す。
func (h *Handler) submitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アンケートIDが指定されていません"})
			return
		}

		defer r.Body.Close()

		var req submitRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxSubmitRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("リクエストの形式が不正です: %v", err),
			})
			return
		}

		answers := make([]domain.Answer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, domain.Answer{QuestionID: strings.TrimSpace(a.QuestionID), Value: a.Value})
		}

		var customer *domain.Customer
		if req.Customer != nil {
			customer = &domain.Customer{Name: req.Customer.Name, Email: req.Customer.Email}
		}

		userID := ""
		if user, ok := common.UserFromContext(r.Context()); ok {
			userID = user.ID
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.recorder.Submit(ctx, publicapp.SubmitCommand{
			SurveyID: idParam,
			Answers:  answers,
			UserID:   userID,
			Customer: customer,
		})
		if err != nil {
			switch fault.KindOf(err) {
			case fault.KindNotFound, fault.KindInactive:
				common.WriteJSON(h.logger, w, http.StatusOK, submitFailureResponse{
					Success: false,
					Message: fault.MessageOf(err),
				})
			case fault.KindValidation:
				common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": fault.MessageOf(err)})
			default:
				h.logger.Printf("回答の保存に失敗 survey=%s err=%v", idParam, err)
				common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "回答の保存に失敗しました"})
			}
			return
		}

		if result.IsExisting {
			common.WriteJSON(h.logger, w, http.StatusOK, submitResponse{
				Success:            false,
				IsExistingResponse: true,
				Data:               buildResponsePayload(result.Response),
				RewardPoints:       0,
			})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, submitResponse{
			Success:      true,
			Data:         buildResponsePayload(result.Response),
			RewardPoints: result.RewardPoints,
		})
	}
}
