// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion and answering to function:
//
//   - FormatDetector: Determines a document's true format
//   - ExtractorRegistry: Turns a raw file into text segments
//   - Splitter: Turns segments into bounded chunks
//   - EmbeddingService: Generates vector embeddings
//   - IndexStore: Builds, persists and loads vector indexes
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, questions fail with ErrLLMUnavailable.
//   - BlobStore: Durable storage. Without it, raw uploads and index transfers are skipped.
//   - UploadLedger: Record of ingested files. Without it, listing returns nothing.
//   - PromptStore: Custom prompts. Without it, built-in defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
