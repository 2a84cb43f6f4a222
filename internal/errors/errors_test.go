package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"adinsight/domain/core"
)

func TestWrapAssignsDomainCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input contract", core.NewMissingWindowError("windows.prior"), CodeInputContractViolation},
		{"output contract", fmt.Errorf("batch: %w", core.ErrOutputContract), CodeOutputContractViolation},
		{"vocabulary", core.ErrInvalidVocabulary, CodeConfigInvalid},
		{"generation", core.NewGenerationError("llm", stderrors.New("timeout")), CodeExternalService},
		{"anything else", stderrors.New("boom"), CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.err, "generate")
			if got := GetCode(err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
			if !stderrors.Is(err, tt.err) {
				t.Error("Wrap must keep the cause in the chain")
			}
		})
	}
}

func TestWrapKeepsAppErrorCode(t *testing.T) {
	base := ConfigInvalid("LLM_API_KEY is required")
	err := Wrapf(base, "load %s", "config")
	if GetCode(err) != CodeConfigInvalid {
		t.Errorf("Expected %s, got %s", CodeConfigInvalid, GetCode(err))
	}
	if err.Error() != "load config: LLM_API_KEY is required" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if Wrap(nil, "x") != nil || WithCode(CodeNotFound, nil) != nil {
		t.Error("Wrapping nil must return nil")
	}
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", OutputContractViolation(core.ErrOutputContract))
	if !IsAppError(err) || GetCode(err) != CodeOutputContractViolation {
		t.Errorf("Expected wrapped AppError to be found, got %s", GetCode(err))
	}
	if GetCode(stderrors.New("plain")) != "UNKNOWN" {
		t.Error("Expected UNKNOWN for plain errors")
	}
}
