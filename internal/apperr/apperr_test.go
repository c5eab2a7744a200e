package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("dial tcp: refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", base, KindUnknown},
		{"direct", Wrap(KindConnection, "connect", base), KindConnection},
		{"wrapped", fmt.Errorf("outer: %w", Validation("refresh", "no table selected")), KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	base := errors.New("boom")

	err := Wrap(KindQuery, "execute", base)
	if err.Error() != "execute: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match base")
	}

	e := &Error{Kind: KindNetwork, Op: "generate", Message: "status 500", Err: base}
	if e.Error() != "generate: status 500: boom" {
		t.Errorf("unexpected message %q", e.Error())
	}

	if Wrap(KindQuery, "x", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
