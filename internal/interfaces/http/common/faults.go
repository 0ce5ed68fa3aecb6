package common

import (
	"log"
	"net/http"

	"github.com/sngm3741/qr-survey-rewards/api/pkg/fault"
)

// StatusForFault は fault の分類を HTTP ステータスへ写像する。
func StatusForFault(err error) int {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindInactive, fault.KindValidation, fault.KindAlreadyApproved:
		return http.StatusBadRequest
	case fault.KindConflict:
		return http.StatusConflict
	case fault.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteFault は fault を `{error: string}` 形式で書き出す。
// 分類できないエラーは詳細を伏せ、運用ログにだけ残す。
func WriteFault(logger *log.Logger, w http.ResponseWriter, err error, fallbackMessage string) {
	status := StatusForFault(err)
	message := fault.MessageOf(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Printf("内部エラー: %v", err)
		}
		message = fallbackMessage
	}
	WriteJSON(logger, w, status, map[string]string{"error": message})
}
