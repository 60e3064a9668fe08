// Package llm provides the generation backends that rewrite selected text.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// DefaultInstruction is used when the user leaves the instruction blank.
const DefaultInstruction = "Please improve the formatting and clarity of this text while maintaining its original meaning."

// Request is one rewrite request.
type Request struct {
	SelectedText string
	Instruction  string
}

// Generator turns (selectedText, instruction) into rewritten text.
// Errors are *failure.Error with a backend kind.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
}

const systemPrompt = `You are an expert text-rewriting assistant specializing in helping bug bounty hunters communicate like native English speakers. Your primary goal is to transform the user's "Selected Text" according to their "User Instruction" while ensuring perfect grammar, natural syntax, and professional clarity.

Response rules:
    1. Return exactly one rewritten result, no alternatives.
    2. No preamble, no explanations, no apologies.
    3. Only include explanations if the user explicitly asked for them.
    4. Only include formatting tips (e.g. Markdown code blocks) if the user's instruction calls for formatting.
    5. Keep tone, style, and register aligned with the user's instruction (professional, casual, Gen Z, etc.).

Language improvement guidelines:
    1. Fix all grammar, spelling, and punctuation errors to native-level English.
    2. Restructure awkward sentences to sound natural and fluent.
    3. Preserve all technical terms, CVE numbers, and security concepts exactly as written.
    4. Maintain the original meaning and technical details while improving clarity.
    5. Use professional security industry terminology and phrasing when appropriate.
    6. For vulnerability reports: ensure clear impact descriptions and concise reproduction steps.
    7. For communications: maintain a respectful, confident tone appropriate for security professionals.
    8. If no specific instruction is given, default to making the text sound professional and native.`

// SystemPrompt returns the rewriting-assistant instructions.
func SystemPrompt() string { return systemPrompt }

// ResolveInstruction trims the instruction and substitutes the default when blank.
func ResolveInstruction(instruction string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return DefaultInstruction
	}
	return instruction
}

// UserPrompt renders the request part of the prompt. Both values are
// embedded as-is between quotes, never escaped.
func UserPrompt(req Request) string {
	return fmt.Sprintf("Now rewrite:\n\nUser Instruction: \"%s\"\nSelected Text:\n\"%s\"",
		ResolveInstruction(req.Instruction), req.SelectedText)
}

// BuildPrompt renders system and user parts as one prompt, for single-turn
// backends.
func BuildPrompt(req Request) string {
	return systemPrompt + "\n\n" + UserPrompt(req)
}

// CleanResponse trims the generated text and removes one pair of wrapping
// double quotes.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = text[1 : len(text)-1]
	}
	return text
}
