package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sngm3741/qr-survey-rewards/api/internal/interfaces/http/common"
)

func (h *Handler) auditListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), common.DefaultAuditListLimit)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		entries, err := h.audit.Recent(ctx, limit)
		if err != nil {
			common.WriteFault(h.logger, w, err, "監査ログの取得に失敗しました")
			return
		}

		items := make([]auditEntryPayload, 0, len(entries))
		for _, entry := range entries {
			items = append(items, buildAuditEntryPayload(entry))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, auditListResponse{Items: items})
	}
}

func (h *Handler) userPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "ユーザーIDが指定されていません"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		points, err := h.users.PointBalance(ctx, idParam)
		if err != nil {
			common.WriteFault(h.logger, w, err, "ポイント残高の取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, userPointsResponse{UserID: idParam, Points: points})
	}
}
