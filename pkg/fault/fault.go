package fault

import (
	"errors"
	"fmt"
)

// Kind はコアが外部へ公開する失敗の分類。
// HTTP 層はこの分類だけを見てステータスコードを決める。
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound はコード・アンケート・回答が存在しない場合。
	KindNotFound
	// KindInactive はコードまたはアンケートが無効化済みの場合。
	KindInactive
	// KindConflict は一意制約違反(重複回答)。呼び出し側で回復されるのが前提。
	KindConflict
	// KindAlreadyApproved は承認済み回答への再承認。
	KindAlreadyApproved
	// KindValidation は入力不備(必須回答の欠落、存在しない設問など)。
	KindValidation
	// KindTransient はストア側の一時的な障害。リトライ可能。
	KindTransient
	// KindUnauthorized は認証・認可の失敗。コアは判定結果を受け取るのみ。
	KindUnauthorized
)

// Fault carries a classified error with an optional wrapped cause.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", f.kindString(), f.Message, f.Err)
	}
	return fmt.Sprintf("[%s] %s", f.kindString(), f.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (f *Fault) Unwrap() error {
	return f.Err
}

func (f *Fault) kindString() string {
	switch f.Kind {
	case KindNotFound:
		return "NotFound"
	case KindInactive:
		return "Inactive"
	case KindConflict:
		return "Conflict"
	case KindAlreadyApproved:
		return "AlreadyApproved"
	case KindValidation:
		return "ValidationFailed"
	case KindTransient:
		return "TransientError"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "UnknownError"
	}
}

// New wraps err with a kind and message.
func New(kind Kind, message string, err error) error {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// NotFound は対象が存在しないことを表す Fault を生成する。
func NotFound(message string) error {
	return &Fault{Kind: KindNotFound, Message: message}
}

// Inactive は無効化済みの対象への操作を表す Fault を生成する。
func Inactive(message string) error {
	return &Fault{Kind: KindInactive, Message: message}
}

// Conflict は一意制約違反を表す Fault を生成する。
func Conflict(message string, err error) error {
	return &Fault{Kind: KindConflict, Message: message, Err: err}
}

// AlreadyApproved は再承認の試行を表す Fault を生成する。
func AlreadyApproved(message string) error {
	return &Fault{Kind: KindAlreadyApproved, Message: message}
}

// Validation は入力不備を表す Fault を生成する。
func Validation(message string) error {
	return &Fault{Kind: KindValidation, Message: message}
}

// Transient はリトライ可能なストア障害を表す Fault を生成する。
func Transient(message string, err error) error {
	return &Fault{Kind: KindTransient, Message: message, Err: err}
}

// KindOf はエラーから Kind を取り出す。Fault でなければ KindUnknown。
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf は利用者へ提示可能なメッセージを取り出す。
func MessageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
