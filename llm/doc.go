// Package llm defines the small chat abstraction implemented by the model
// handles that LLM nodes supply to the host.
//
//   - [LLM] is the interface downstream nodes call.
//   - [Message] carries a single chat turn.
//   - [Option] functions adjust an individual generation.
package llm
