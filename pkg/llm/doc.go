// Package llm defines the narrow contract through which the governed
// pipeline speaks to a language model, and one concrete adapter for
// OpenAI-compatible HTTP endpoints.
//
// The model is an external collaborator: the pipeline only needs
// complete(prompt) → text, optionally with a streaming variant. Anything
// richer (tools, conversation history, routing) lives outside the core.
package llm
