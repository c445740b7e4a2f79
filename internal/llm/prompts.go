package llm

import (
	"fmt"
	"strings"

	"github.com/kuapa-ai/kuapa/internal/retriever"
)

const systemPrompt = "You are Kuapa AI, an agricultural advisor for Ghanaian farmers. " +
	"Answer concisely and practically. If unsure, acknowledge uncertainty. " +
	"Never hallucinate facts. Use provided context for accurate advice."

const unconfiguredReply = "Sorry, I'm currently not configured for LLM responses. Please set GEMINI_API_KEY."

const couldNotTranscribe = "Could not transcribe audio"

// languagePrompts maps a language code to the response instruction
// appended to the system prompt.
var languagePrompts = map[string]string{
	"en":  "Respond in English.",
	"tw":  "Respond in Twi (Akan language). Use Twi vocabulary and grammar.",
	"ga":  "Respond in Ga language. Use Ga vocabulary and grammar.",
	"ee":  "Respond in Ewe language. Use Ewe vocabulary and grammar.",
	"dag": "Respond in Dagbani language. Use Dagbani vocabulary and grammar.",
}

const transcriptionPrompt = `Transcribe this audio recording. Detect the language automatically.

The audio may be in one of these languages:
- English
- Twi (Akan)
- Ga
- Ewe
- Dagbani

Instructions:
1. Detect the language being spoken
2. Transcribe exactly what is said
3. If you cannot understand the audio, respond with: "Could not transcribe audio"
4. Only return the transcribed text, nothing else

Transcription:`

// buildPrompt assembles the grounded question prompt: language
// instruction, retrieved context tagged with sources, then the query.
func buildPrompt(query string, chunks []retriever.Result, language string) string {
	instruction, ok := languagePrompts[language]
	if !ok {
		instruction = languagePrompts["en"]
	}

	contextText := buildContext(chunks)

	return fmt.Sprintf(`%s

Context from the agricultural knowledge base:
%s

Question: %s

Instructions:
1. Answer based on the provided context when it is relevant
2. If the context does not cover the question, give general best-practice advice and say so
3. Keep the answer short and actionable for a farmer`,
		instruction, contextText, query)
}

// buildContext joins retrieved chunks, each tagged with its source
func buildContext(chunks []retriever.Result) string {
	if len(chunks) == 0 {
		return "No relevant passages were found in the knowledge base."
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[source: %s] %s", c.Source, c.Text))
	}
	return strings.Join(parts, "\n\n")
}
