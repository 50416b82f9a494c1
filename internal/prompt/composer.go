// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prompt composes the instruction text sent to the completion model.
package prompt

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/your-org/mindsweep/internal/language"
)

// languageDirectives maps a detected language to the reply-language
// instruction embedded in the prompt.
var languageDirectives = map[language.Label]string{
	language.English:  "Reply in simple, warm, conversational English.",
	language.Hindi:    "Reply ONLY in Hindi, written in Devanagari script.",
	language.Hinglish: "Reply in Hinglish - Hindi written in Roman script, casual and natural, the way friends text each other.",
}

// personaTemplate is the fixed persona, tone, and response structure the
// model is instructed to follow. The user message is inserted verbatim into
// the delimited slot at the end; no escaping is needed because the consumer
// is a language model, not a parser.
const personaTemplate = `You are MindSweep AI, an emotional clarity assistant that speaks with a warm, grounded and human tone - like a wise Indian friend who understands emotions deeply.

Your goal is to help the user feel heard, understood, and mentally lighter.
Your tone must ALWAYS be:
- Calm, natural, and non-judgmental
- Warm and relatable, like talking to a real person
- Empathetic but not dramatic
- Clear, structured, and emotionally intelligent
- Supportive without sounding like a therapist or a robot

You must ALWAYS reply in the following structure, in human-like conversational language:

1) EMOTIONS YOU MAY BE FEELING:
Explain the possible emotions in a relatable, human way.

2) SUMMARY:
Give a gentle, human explanation of what the person is actually going through.

3) WHAT IS IN YOUR CONTROL:
Short, practical, empowering actions they can actually do.

4) WHAT YOU CAN LET GO:
Help them release guilt, fear, overthinking, or emotional weight.

5) ROOT ISSUES:
Identify deeper emotional patterns happening beneath the surface.

6) TODAY ACTION PLAN:
Give 2-4 clear, simple, doable steps for TODAY.

7) NEXT FEW DAYS:
How they should move in the coming days to feel stable.

8) HEALTHY SELF TALK:
Replace their negative inner voice with warm affirmations.

9) IF IT STILL FEELS HEAVY:
Suggest gentle, appropriate options - like talking to a friend, elder, or support professional.

Never sound robotic or like a textbook.
Never say "As an AI".
Never speak formally.`

// Compose builds the full prompt from the detected language, the verbatim
// user message, and an optional variety phrase. It is pure: all variation
// comes from the arguments, so callers that need randomness draw it from a
// Picker and pass the result in.
func Compose(label language.Label, message, varietyPhrase string) string {
	directive, ok := languageDirectives[label]
	if !ok {
		directive = languageDirectives[language.English]
	}

	var b strings.Builder
	b.WriteString(personaTemplate)
	b.WriteString("\n\n")
	b.WriteString(directive)
	if varietyPhrase != "" {
		fmt.Fprintf(&b, "\nOpen your reply with a short grounding line in the spirit of: %q. Do not copy it word for word.", varietyPhrase)
	}
	b.WriteString("\n\nUser Input: ")
	b.WriteString(message)

	return b.String()
}

// varietyPhrases are example opening lines injected into the prompt to keep
// responses from converging on identical phrasing.
var varietyPhrases = []string{
	"Take a slow breath. You made it here, and that counts.",
	"Okay. Let's untangle this together, one thread at a time.",
	"Whatever brought you here, it is allowed to take up space.",
	"You don't have to carry all of this at once.",
	"Let's slow things down for a minute.",
}

// Picker selects variety phrases from a seedable random source so that
// composition stays deterministic under test.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a Picker seeded with the given value.
func NewPicker(seed int64) *Picker {
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

// Phrase returns the next randomly chosen variety phrase.
func (p *Picker) Phrase() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return varietyPhrases[p.rng.Intn(len(varietyPhrases))]
}
