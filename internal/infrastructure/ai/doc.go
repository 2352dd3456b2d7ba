// Package ai wraps the chat and embedding providers behind the assistant and
// knowledge search.
//
// Chat providers are tried in order by FallbackChain: OpenAI (openai-go), then a
// secondary langchaingo backend (Ollama or any OpenAI-compatible server), then
// the rule-based generator which always answers. Embedders follow the same order
// through EmbedderChain; a nil embedder means search runs on text matching only.
package ai
