package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "type and message",
			err:  New(ErrorTypeValidation, "content id is empty"),
			want: "validation error: content id is empty",
		},
		{
			name: "with platform and code",
			err:  FromStatusCode("youtube", 429, ""),
			want: "youtube: rate_limit error (code 429): rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrapAndIsType(t *testing.T) {
	inner := errors.New("connection reset")
	err := Wrap(inner, ErrorTypeNetwork, "fetch failed").WithPlatform("tiktok")
	wrapped := fmt.Errorf("page 3: %w", err)

	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is lost the inner error through Wrap")
	}
	if !IsType(wrapped, ErrorTypeNetwork) {
		t.Error("IsType failed to find network type through the chain")
	}
	if IsType(wrapped, ErrorTypeAuth) {
		t.Error("IsType matched the wrong type")
	}
	if got := TypeOf(wrapped); got != ErrorTypeNetwork {
		t.Errorf("TypeOf = %s, want %s", got, ErrorTypeNetwork)
	}
	if got := TypeOf(errors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("TypeOf(plain) = %s, want %s", got, ErrorTypeUnknown)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError}
	permanent := []ErrorType{
		ErrorTypeConfiguration, ErrorTypeValidation, ErrorTypeDailyQuota,
		ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypePartialBatch,
		ErrorTypeUnknown,
	}

	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("IsRetryable(%s) = false, want true", et)
		}
	}
	for _, et := range permanent {
		if IsRetryable(et) {
			t.Errorf("IsRetryable(%s) = true, want false", et)
		}
	}
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{400, ErrorTypeValidation},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		got := FromStatusCode("facebook", tt.code, "")
		if got.Type != tt.want {
			t.Errorf("FromStatusCode(%d) type = %s, want %s", tt.code, got.Type, tt.want)
		}
		if got.Code != tt.code {
			t.Errorf("FromStatusCode(%d) code = %d", tt.code, got.Code)
		}
	}
}
