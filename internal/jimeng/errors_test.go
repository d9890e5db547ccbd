package jimeng

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := wrapError(KindTransport, cause, "call %s", "/mweb/v1/generate_video")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause must survive errors.Is")
	}
	if !IsKind(err, KindTransport) {
		t.Error("IsKind failed on direct error")
	}
	if IsKind(err, KindUpload) {
		t.Error("IsKind matched the wrong kind")
	}

	// 再包一层普通错误后仍能识别
	outer := fmt.Errorf("task submit: %w", err)
	if !IsKind(outer, KindTransport) {
		t.Error("IsKind failed through fmt.Errorf wrapping")
	}
	if KindOf(outer) != KindTransport {
		t.Errorf("KindOf = %v", KindOf(outer))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != 0 {
		t.Error("plain errors must report zero kind")
	}
	if IsKind(nil, KindValidation) {
		t.Error("nil must never match a kind")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindValidation, "validation_failure"},
		{KindCredentialMalformed, "credential_malformed"},
		{KindUpload, "upload_failure"},
		{KindSubmission, "submission_failure"},
		{KindTransport, "transport_failure"},
		{KindRecordNotFound, "record_not_found"},
		{KindCredits, "credits_query_failed"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
