package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttemptJudgmentCodeTable(t *testing.T) {
	// Полная таблица 2×3×4. Приоритет фиксированный: корректность,
	// затем возврат, затем причина допуска.
	expected := func(correct bool, action ErrAction, reason ErrActionReason) int {
		switch {
		case correct:
			return 0
		case action == ErrActionBack:
			return 1
		case reason == ReasonCannotOCR:
			return 2
		case reason == ReasonCheckError:
			return 3
		case reason == ReasonFold:
			return 4
		}
		return 0
	}

	actions := []ErrAction{ErrActionNone, ErrActionAllow, ErrActionBack}
	reasons := []ErrActionReason{ReasonNone, ReasonCannotOCR, ReasonCheckError, ReasonFold}

	for _, correct := range []bool{true, false} {
		for _, action := range actions {
			for _, reason := range reasons {
				a := &Attempt{IsCorrect: correct, ErrAction: action, ErrActionReason: reason}
				require.Equalf(t, expected(correct, action, reason), a.JudgmentCode(),
					"correct=%v action=%v reason=%v", correct, action, reason)
			}
		}
	}
}

func TestAttemptJudgmentCode_CorrectWinsOverBack(t *testing.T) {
	a := &Attempt{IsCorrect: true, ErrAction: ErrActionBack, ErrActionReason: ReasonFold}
	require.Equal(t, 0, a.JudgmentCode())
}

func TestAttemptJudgmentCode_ReasonWithoutBack(t *testing.T) {
	// Причина может быть выставлена при ErrAction=None: панель не
	// навязывает взаимное исключение, коды 2-4 достижимы без возврата.
	a := &Attempt{ErrActionReason: ReasonCannotOCR}
	require.Equal(t, 2, a.JudgmentCode())
	require.Equal(t, "Err", a.Category())
	require.Equal(t, "NO_OCR", a.Keyword())
}

func TestAttemptCategoryAndKeyword(t *testing.T) {
	cases := []struct {
		name     string
		attempt  Attempt
		category string
		keyword  string
	}{
		{"correct", Attempt{IsCorrect: true}, "OK", "OK"},
		{"back", Attempt{ErrAction: ErrActionBack}, "NG", "NG"},
		{"allow cannot ocr", Attempt{ErrAction: ErrActionAllow, ErrActionReason: ReasonCannotOCR}, "Err", "NO_OCR"},
		{"allow check error", Attempt{ErrAction: ErrActionAllow, ErrActionReason: ReasonCheckError}, "Err", "OCR_Fail"},
		{"allow fold", Attempt{ErrAction: ErrActionAllow, ErrActionReason: ReasonFold}, "Err", "OCR_Fold"},
		{"incorrect without judgment", Attempt{}, "Err", "OK"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.category, tc.attempt.Category())
			require.Equal(t, tc.keyword, tc.attempt.Keyword())
		})
	}
}

func TestAttemptScreenshotKeyword(t *testing.T) {
	require.Empty(t, (&Attempt{IsCorrect: true}).ScreenshotKeyword())
	require.Equal(t, "NG", (&Attempt{ErrAction: ErrActionBack}).ScreenshotKeyword())
	require.Equal(t, "Err_NoOCR", (&Attempt{ErrActionReason: ReasonCannotOCR}).ScreenshotKeyword())
	require.Equal(t, "Err_Fail", (&Attempt{ErrActionReason: ReasonCheckError}).ScreenshotKeyword())
	require.Equal(t, "Err_Fold", (&Attempt{ErrActionReason: ReasonFold}).ScreenshotKeyword())
	require.Empty(t, (&Attempt{}).ScreenshotKeyword())
}

func TestAttemptApplyEvents(t *testing.T) {
	a := NewAttempt("2A-ABCD-12345")

	a.Apply(EventAllow)
	require.Equal(t, ErrActionAllow, a.ErrAction)

	a.Apply(EventBack)
	require.Equal(t, ErrActionBack, a.ErrAction)

	a.Apply(EventCannotOCR)
	a.Apply(EventOCRError)
	require.Equal(t, ReasonCheckError, a.ErrActionReason)

	a.Apply(EventExteriorNG)
	a.Apply(EventReasonLeak)
	require.Equal(t, ExteriorNG, a.Exterior)
	require.Equal(t, ExtReasonLeak, a.ExteriorNGReason)

	a.Apply(EventToggleClass1)
	require.True(t, a.Class1)
	a.Apply(EventToggleClass1)
	require.False(t, a.Class1)
}

func TestAttemptExteriorClassValue(t *testing.T) {
	a := NewAttempt("X")
	require.Equal(t, 0, a.ExteriorClassValue())

	a.Apply(EventToggleClass1)
	require.Equal(t, 1, a.ExteriorClassValue())

	a.Apply(EventToggleClass2)
	require.Equal(t, 3, a.ExteriorClassValue())

	a.Apply(EventToggleClass1)
	require.Equal(t, 2, a.ExteriorClassValue())
}

func TestAttemptIsExteriorOK(t *testing.T) {
	a := NewAttempt("X")
	require.True(t, a.IsExteriorOK()) // не осмотрено, значит не NG

	a.Apply(EventExteriorNG)
	require.False(t, a.IsExteriorOK())

	a.Apply(EventExteriorOK)
	require.True(t, a.IsExteriorOK())
}
