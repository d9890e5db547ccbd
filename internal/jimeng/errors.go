package jimeng

import (
	"errors"
	"fmt"
)

// Kind classifies a failure surfaced by this package. Callers branch on the
// kind, never on message text.
type Kind int

const (
	// KindValidation 参数组合非法，发起任何网络调用之前就会失败
	KindValidation Kind = iota + 1
	// KindCredentialMalformed 凭证里找不到地区标记
	KindCredentialMalformed
	// KindUpload 素材上传失败
	KindUpload
	// KindSubmission 提交被受理但响应里没有可用的 history id
	KindSubmission
	// KindTransport 网络错误或非 2xx / 非 0 ret
	KindTransport
	// KindRecordNotFound 查询的 history id 不存在
	KindRecordNotFound
	// KindCredits 积分查询失败
	KindCredits
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failure"
	case KindCredentialMalformed:
		return "credential_malformed"
	case KindUpload:
		return "upload_failure"
	case KindSubmission:
		return "submission_failure"
	case KindTransport:
		return "transport_failure"
	case KindRecordNotFound:
		return "record_not_found"
	case KindCredits:
		return "credits_query_failed"
	default:
		return "unknown"
	}
}

// Error carries a failure kind together with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err (or anything it wraps) is a jimeng error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var je *Error
	if errors.As(err, &je) {
		return je.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or zero if err does not carry one.
func KindOf(err error) Kind {
	var je *Error
	if errors.As(err, &je) {
		return je.Kind
	}
	return 0
}
