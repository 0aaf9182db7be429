// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs (OpenAI itself, Ollama, LocalAI, vLLM and friends) via
// langchaingo.
//
// The embedder and the title extractor may point at different hosts and
// models; title extraction is a short-form task and should use a small,
// cheap model. Every outbound call is bounded by the configured
// per-call timeout, so a stalled service degrades into an ordinary
// error instead of hanging a query.
package openai
