// Package language provides response-language detection for user messages.
package language

import (
	"strings"
)

// Devanagari Unicode block bounds and the detection threshold
const (
	DevanagariRangeStart = 'ऀ'
	DevanagariRangeEnd   = 'ॿ'
	DevanagariThreshold  = 3
)

// Label is the detected response language for a message.
type Label string

const (
	// English is the default label when no other signal is present
	English Label = "english"
	// Hindi is returned for messages written in Devanagari script
	Hindi Label = "hindi"
	// Hinglish is returned for romanized Hindi messages
	Hinglish Label = "hinglish"
)

// Detector classifies free-text messages into a response language.
type Detector struct {
	hinglishTokens []string
}

// NewDetector creates a new instance of Detector
func NewDetector() *Detector {
	return &Detector{
		hinglishTokens: []string{
			"kya", "kyu", "kaise", "kab", "kaun", "nahi", "mujhe", "tumhe",
			"yaar", "dost", "dil", "samajh", "zindagi", "pyaar", "accha",
			"theek", "bahut", "kuch", "mera", "tera", "bhai", "pareshan",
			"dimaag", "sochta", "hona",
		},
	}
}

// Detect classifies text into english, hindi, or hinglish.
// Devanagari content takes priority over the romanized keyword check;
// the keyword check matches substrings, so false positives on unrelated
// words containing a token are accepted heuristic behavior.
func (d *Detector) Detect(text string) Label {
	devanagari := 0
	for _, r := range text {
		if r >= DevanagariRangeStart && r <= DevanagariRangeEnd {
			devanagari++
		}
	}
	if devanagari > DevanagariThreshold {
		return Hindi
	}

	lowered := strings.ToLower(text)
	for _, token := range d.hinglishTokens {
		if strings.Contains(lowered, token) {
			return Hinglish
		}
	}

	return English
}
