// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordSource: Reads the question/answer corpus
//   - EmbeddingService: Turns text into vectors, at build and query time
//   - VectorIndex: Top-k similarity search over a loaded index
//   - IndexStore: Persists and reloads index artifacts
//   - ConfigStore: Application configuration
//   - PromptStore: User-editable prompt and fallback texts
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model access. Without it, only retrieval is available.
//   - Generator: Answers a query from context. Built on top of LLMService.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
