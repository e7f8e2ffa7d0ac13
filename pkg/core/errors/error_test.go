package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("parse failed")

	if err.Error() != "parse failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want medium", err.Severity())
	}
}

func TestWithCode_SetsSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeInvalidInput, SeverityLow},
		{CodeUnsolvable, SeverityLow},
		{CodeTimeout, SeverityMedium},
		{CodeServiceUnavailable, SeverityHigh},
		{CodeInternal, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.want {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.want)
			}
		})
	}
}

func TestWithCode_KeepsExplicitSeverity(t *testing.T) {
	err := New("x").WithSeverity(SeverityCritical).WithCode(CodeInvalidInput)
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want critical", err.Severity())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Fatal("Wrap(nil) should return nil")
	}

	inner := New("deadline").WithCode(CodeTimeout)
	outer := Wrap(inner, "solve")

	if outer.Error() != "solve: deadline" {
		t.Errorf("Error() = %q", outer.Error())
	}
	if outer.Code() != CodeTimeout {
		t.Errorf("Code() = %v, want inherited %v", outer.Code(), CodeTimeout)
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestWrap_StandardError(t *testing.T) {
	outer := Wrap(context.DeadlineExceeded, "solve")
	if !Is(outer, context.DeadlineExceeded) {
		t.Error("Is() should see through Wrap")
	}
	if outer.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", outer.Code(), CodeUnknown)
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != "" {
		t.Error("CodeOf(nil) should be empty")
	}
	if CodeOf(fmt.Errorf("plain")) != CodeUnknown {
		t.Error("CodeOf(plain) should be UNKNOWN")
	}

	coded := New("bad").WithCode(CodeInvalidInput)
	wrapped := fmt.Errorf("context: %w", coded)
	if CodeOf(wrapped) != CodeInvalidInput {
		t.Errorf("CodeOf(wrapped) = %v", CodeOf(wrapped))
	}
	if !HasCode(wrapped, CodeInvalidInput) {
		t.Error("HasCode() should match through fmt wrapping")
	}
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeUnsolvable, http.StatusUnprocessableEntity},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeServiceUnavailable, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("no solution").
		WithCode(CodeUnsolvable).
		WithOperation("solve").
		WithDetail("hint", "best_hint")

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Marshal() error = %v", jerr)
	}

	var decoded map[string]interface{}
	json.Unmarshal(data, &decoded)

	if decoded["code"] != "UNSOLVABLE" {
		t.Errorf("code = %v", decoded["code"])
	}
	if decoded["operation"] != "solve" {
		t.Errorf("operation = %v", decoded["operation"])
	}
	details, _ := decoded["details"].(map[string]interface{})
	if details["hint"] != "best_hint" {
		t.Errorf("details = %v", decoded["details"])
	}
}

func TestDetails_ReturnsCopy(t *testing.T) {
	err := New("x").WithDetail("a", 1)
	d := err.Details()
	d["a"] = 2
	if err.Details()["a"] != 1 {
		t.Error("Details() must not expose internal map")
	}
}
