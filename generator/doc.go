// Package generator provides candidate plan producers: a deterministic Mock
// for tests and demos, shared prompt/parsing helpers, and (in subpackages)
// adapters calling the Anthropic and OpenAI APIs. Generator output is
// untrusted input; the plan lifecycle manager validates every candidate
// before anything is persisted.
package generator
