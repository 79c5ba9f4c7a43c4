package errors

import (
	"errors"
	"strings"
	"testing"
)

type pos string

func (p pos) String() string { return string(p) }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseTranslate,
				Kind:   KindStructural,
				Pos:    "body.yaml:3:5",
				Path:   []string{"outer", "inner"},
				Label:  "done",
				Detail: "break target missing",
			},
			contains: []string{"[translate]", "structural", "body.yaml:3:5", "outer.inner", "label done", "break target missing"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCoroutine,
				Kind:  KindUnsupported,
			},
			contains: []string{"[coroutine]", "unsupported"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseFixture,
				Kind:   KindInvalidInput,
				Detail: "bad body",
				Cause:  errors.New("yaml: line 2"),
			},
			contains: []string{"[fixture]", "invalid_input", "bad body", "caused by", "yaml: line 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseConfig, KindInvalidInput, cause, "loading")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestError_Is(t *testing.T) {
	err := Structural(PhaseTranslate, pos("a:1:1"), "missing payload %d", 3)

	if !errors.Is(err, &Error{Phase: PhaseTranslate, Kind: KindStructural}) {
		t.Error("same phase and kind should match")
	}
	if errors.Is(err, &Error{Phase: PhaseTranslate, Kind: KindUnsupported}) {
		t.Error("different kind should not match")
	}
	if errors.Is(err, &Error{Phase: PhaseSimplify, Kind: KindStructural}) {
		t.Error("different phase should not match")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseEscape, KindInvariant).
		At(pos("x:2:1")).
		Path("f").
		Label("L").
		Detail("code %d reused", 2).
		Build()

	if err.Pos != "x:2:1" || err.Label != "L" || err.Detail != "code 2 reused" {
		t.Errorf("unexpected builder result: %+v", err)
	}
	if !err.Fatal() {
		t.Error("invariant errors are fatal")
	}
	if Unsupported(PhaseCoroutine, nil, "x").Fatal() {
		t.Error("unsupported errors are not fatal")
	}
}

func TestUnresolvedJump(t *testing.T) {
	if msg := UnresolvedJump(pos("p"), "break", "").Error(); !strings.Contains(msg, "break outside of any loop") {
		t.Errorf("got %q", msg)
	}
	if msg := UnresolvedJump(pos("p"), "continue", "L").Error(); !strings.Contains(msg, "label L") {
		t.Errorf("got %q", msg)
	}
}

func TestConfigMismatch(t *testing.T) {
	err := ConfigMismatch("unknown failure strategy %d", 9)
	if err.Phase != PhaseConfig || err.Kind != KindConfigMismatch {
		t.Errorf("got %v", err)
	}
}
