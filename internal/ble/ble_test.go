package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/urls"
)

func TestDevice_DisplayName(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{"named", Device{ID: "AA:BB", Name: "LINE Things"}, "LINE Things"},
		{"anonymous", Device{ID: "AA:BB"}, "AA:BB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilter_MatchName(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   bool
	}{
		{"", "anything", true},
		{"", "", true},
		{"LINE", "LINE Things dev board", true},
		{"LINE", "Other", false},
		{"LINE", "", false},
	}

	for _, tt := range tests {
		f := Filter{NamePrefix: tt.prefix}
		if got := f.MatchName(tt.name); got != tt.want {
			t.Errorf("Filter{%q}.MatchName(%q) = %v, want %v", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"e4:5f:01:aa:bb:cc", "E4:5F:01:AA:BB:CC"},
		{" E4:5F:01:AA:BB:CC\n", "E4:5F:01:AA:BB:CC"},
		{"3f2504e0-4f89-11d3-9a0c-0305e82c3301", "3F2504E0-4F89-11D3-9A0C-0305E82C3301"},
	}
	for _, tt := range tests {
		if got := NormalizeAddress(tt.in); got != tt.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeUUID(t *testing.T) {
	got := NormalizeUUID(" {F2B742DC-35E3-4E55-9DEF-0CE4A209C552} ")
	want := "f2b742dc-35e3-4e55-9def-0ce4a209c552"
	if got != want {
		t.Errorf("NormalizeUUID() = %q, want %q", got, want)
	}
}

func TestNewError_ClassifiesContextErrors(t *testing.T) {
	err := NewError(CodeScanFailed, "scan", context.DeadlineExceeded)
	if err.Code != CodeTimeout {
		t.Errorf("Code = %q, want %q", err.Code, CodeTimeout)
	}
	if !err.Retryable {
		t.Error("timeout errors should be retryable")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should see the wrapped deadline error")
	}
}

func TestCodeOfAndMessageOf(t *testing.T) {
	cause := errors.New("le-connection-abort-by-local")
	wrapped := fmt.Errorf("select: %w", NewDeviceError(CodeConnectFailed, "AA:BB", "connect failed", cause))

	tests := []struct {
		name        string
		err         error
		wantCode    ErrorCode
		wantMessage string
	}{
		{"nil", nil, "", ""},
		{"wrapped ble error", wrapped, CodeConnectFailed, "connect failed: le-connection-abort-by-local"},
		{"ble error without cause", NewError(CodeServiceNotFound, "no service", nil), CodeServiceNotFound, "no service"},
		{"plain error", errors.New("boom"), CodeUnknown, "boom"},
		{"context", context.Canceled, CodeTimeout, "context canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.wantCode {
				t.Errorf("CodeOf() = %q, want %q", got, tt.wantCode)
			}
			if got := MessageOf(tt.err); got != tt.wantMessage {
				t.Errorf("MessageOf() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewError(CodeConnectFailed, "x", nil)) {
		t.Error("connect failures should be retryable")
	}
	if IsRetryable(NewError(CodeWriteFailed, "x", nil)) {
		t.Error("write failures should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestTroubleshootingHint(t *testing.T) {
	hints := TroubleshootingHint(NewError(CodeUnavailable, "off", nil))
	if len(hints) == 0 || !strings.Contains(hints[0], "Bluetooth") {
		t.Errorf("TroubleshootingHint() = %v, want Bluetooth advice", hints)
	}
	if got := TroubleshootingHint(errors.New("x")); len(got) != 2 || !strings.Contains(got[1], urls.LineThingsDocs) {
		t.Errorf("TroubleshootingHint(unknown) = %v, want generic hint and docs link", got)
	}
}

func TestError_Format(t *testing.T) {
	err := NewError(CodeReadFailed, "read version", errors.New("io"))
	if got, want := err.Error(), "read_failed: read version (caused by: io)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := Summary(err), "read_failed: read version: io"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("carrier-pigeon", Filter{})
	if CodeOf(err) != CodeAdapterFailed {
		t.Errorf("Open() error code = %q, want %q", CodeOf(err), CodeAdapterFailed)
	}
}
