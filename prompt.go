package botly

import (
	"fmt"

	"github.com/trishiras/botly-v3-rag/internal/rag"
)

// PromptKind selects which of the two fixed prompt templates to render.
type PromptKind string

const (
	// PromptPlain is the short-answer general-assistant template.
	PromptPlain PromptKind = "plain"
	// PromptRAG is the document-grounded template that injects retrieved
	// context alongside the question.
	PromptRAG PromptKind = "rag"
)

const plainSystemInstruction = "You are a helpful assistant. Always answer as short as possible. " +
	"You are a text-based AI assistant created by Sumit kumar to help with questions and tasks."

const ragSystemInstruction = `You are a text-based AI assistant created by Sumit kumar to help with questions and tasks.
You are a specialized retrieval-augmented generation assistant trained to analyze documents and provide precise, evidence-based answers.
Your responses should:
1. Be concise and directly address the question
2. Reference specific sections or quotes from the provided document
3. Indicate when information is uncertain or not found in the document
4. Maintain proper context from the document even when fragments are provided
5. Format responses for readability with key points highlighted
6. Avoid hallucinating information not present in the context`

const ragQuestionFormat = "Document Context:\n%s\n\nQuestion: %s\n\n" +
	"Provide a focused answer based exclusively on the information in the document context. " +
	"If the context doesn't contain relevant information, acknowledge the limitation."

// RenderPrompt renders one of the fixed templates into model-ready chat
// messages. The plain template requires a "message" variable; the RAG
// template requires "context" and "question". A missing variable is a
// template error.
func RenderPrompt(kind PromptKind, vars map[string]string) ([]rag.Message, error) {
	switch kind {
	case PromptPlain:
		message, err := requireVar(vars, "message")
		if err != nil {
			return nil, err
		}
		return []rag.Message{
			{Role: "system", Content: plainSystemInstruction},
			{Role: "user", Content: message},
		}, nil

	case PromptRAG:
		context, err := requireVar(vars, "context")
		if err != nil {
			return nil, err
		}
		question, err := requireVar(vars, "question")
		if err != nil {
			return nil, err
		}
		return []rag.Message{
			{Role: "system", Content: ragSystemInstruction},
			{Role: "user", Content: fmt.Sprintf(ragQuestionFormat, context, question)},
		}, nil

	default:
		return nil, newError(ErrorKindTemplate, fmt.Sprintf("unknown prompt kind: %s", kind), nil)
	}
}

func requireVar(vars map[string]string, name string) (string, error) {
	value, ok := vars[name]
	if !ok {
		return "", newError(ErrorKindTemplate, fmt.Sprintf("missing prompt variable %q", name), nil)
	}
	return value, nil
}
