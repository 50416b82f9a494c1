package prompt

import (
	"strings"
	"testing"

	"github.com/your-org/mindsweep/internal/language"
)

func TestCompose_ContainsMessageVerbatim(t *testing.T) {
	message := "kya kru mujhe kuch samajh nahi aa raha"
	result := Compose(language.Hinglish, message, "")

	if !strings.Contains(result, "User Input: "+message) {
		t.Errorf("Expected prompt to contain verbatim user message, got:\n%s", result)
	}
}

func TestCompose_LanguageDirectives(t *testing.T) {
	testCases := []struct {
		name     string
		label    language.Label
		expected string
	}{
		{
			name:     "english directive",
			label:    language.English,
			expected: "conversational English",
		},
		{
			name:     "hindi directive",
			label:    language.Hindi,
			expected: "Devanagari script",
		},
		{
			name:     "hinglish directive",
			label:    language.Hinglish,
			expected: "Hindi written in Roman script",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Compose(tc.label, "hello", "")
			if !strings.Contains(result, tc.expected) {
				t.Errorf("Expected directive containing %q for label %q", tc.expected, tc.label)
			}
		})
	}
}

func TestCompose_UnknownLabelFallsBackToEnglish(t *testing.T) {
	result := Compose(language.Label("klingon"), "hello", "")
	if !strings.Contains(result, "conversational English") {
		t.Error("Expected unknown label to fall back to the English directive")
	}
}

func TestCompose_StructureHeadings(t *testing.T) {
	result := Compose(language.English, "I feel stuck", "")

	headings := []string{
		"EMOTIONS YOU MAY BE FEELING",
		"SUMMARY",
		"WHAT IS IN YOUR CONTROL",
		"WHAT YOU CAN LET GO",
		"ROOT ISSUES",
		"TODAY ACTION PLAN",
		"NEXT FEW DAYS",
		"HEALTHY SELF TALK",
		"IF IT STILL FEELS HEAVY",
	}

	for _, heading := range headings {
		if !strings.Contains(result, heading) {
			t.Errorf("Expected prompt to contain section heading %q", heading)
		}
	}
}

func TestCompose_VarietyPhrase(t *testing.T) {
	phrase := "Take a slow breath."
	result := Compose(language.English, "hello", phrase)

	if !strings.Contains(result, phrase) {
		t.Errorf("Expected prompt to contain variety phrase %q", phrase)
	}

	// Absent phrase leaves no grounding-line instruction behind.
	result = Compose(language.English, "hello", "")
	if strings.Contains(result, "grounding line") {
		t.Error("Expected no grounding-line instruction without a variety phrase")
	}
}

func TestCompose_Deterministic(t *testing.T) {
	first := Compose(language.Hindi, "मुझे समझ नहीं आ रहा", "phrase")
	second := Compose(language.Hindi, "मुझे समझ नहीं आ रहा", "phrase")

	if first != second {
		t.Error("Compose is not deterministic for identical inputs")
	}
}

func TestPicker_SeededSequencesMatch(t *testing.T) {
	a := NewPicker(42)
	b := NewPicker(42)

	for i := 0; i < 20; i++ {
		pa, pb := a.Phrase(), b.Phrase()
		if pa != pb {
			t.Fatalf("Pickers with the same seed diverged at draw %d: %q vs %q", i, pa, pb)
		}
		if pa == "" {
			t.Fatal("Picker returned an empty phrase")
		}
	}
}
