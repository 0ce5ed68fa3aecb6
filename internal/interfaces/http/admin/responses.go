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
)

func (h *Handler) responseListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "アンケートIDが指定されていません"})
			return
		}

		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 20)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		responses, err := h.surveyService.ListResponses(ctx, idParam, adminapp.Paging{Page: page, Limit: limit})
		if err != nil {
			common.WriteFault(h.logger, w, err, "回答一覧の取得に失敗しました")
			return
		}

		items := make([]adminResponsePayload, 0, len(responses))
		for _, resp := range responses {
			items = append(items, buildAdminResponsePayload(resp))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, adminResponseListResponse{Items: items})
	}
}

// approvePointsHandler は回答のポイントを承認する。同じ回答への二度目の承認は
// 台帳側で拒否され、残高への加算は一度しか起きない。
func (h *Handler) approvePointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "回答IDが指定されていません"})
			return
		}

		defer r.Body.Close()

		var req approvePointsRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxAdminRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("リクエストの形式が不正です: %v", err),
			})
			return
		}
		if req.ApprovedPoints == nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "approvedPoints は必須です"})
			return
		}

		admin, _ := common.UserFromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.ledger.Approve(ctx, idParam, *req.ApprovedPoints, admin.ID)
		if err != nil {
			common.WriteFault(h.logger, w, err, "ポイントの承認に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, successResponse{
			Success: true,
			Data: approveResultPayload{
				ResponseID:     result.ResponseID,
				ApprovedPoints: result.ApprovedPoints,
				ApprovedBy:     result.ApprovedBy,
				ApprovedAt:     result.ApprovedAt,
			},
		})
	}
}

func (h *Handler) rejectPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "回答IDが指定されていません"})
			return
		}

		admin, _ := common.UserFromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.ledger.Reject(ctx, idParam, admin.ID)
		if err != nil {
			common.WriteFault(h.logger, w, err, "ポイントの却下に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, successResponse{
			Success: true,
			Data: rejectResultPayload{
				ResponseID:     result.ResponseID,
				RejectedBy:     result.RejectedBy,
				RejectedAt:     result.RejectedAt,
				ReversedPoints: result.ReversedPoints,
			},
		})
	}
}

func (h *Handler) responseDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "回答IDが指定されていません"})
			return
		}

		admin, _ := common.UserFromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.ledger.DeleteResponse(ctx, idParam, admin.ID)
		if err != nil {
			common.WriteFault(h.logger, w, err, "回答の削除に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, successResponse{
			Success: true,
			Data: deleteResultPayload{
				ResponseID:     result.ResponseID,
				DeletedBy:      result.DeletedBy,
				DeletedAt:      result.DeletedAt,
				ReversedPoints: result.ReversedPoints,
			},
		})
	}
}
