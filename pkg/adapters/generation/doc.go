// Package generation provides generation client implementations.
//
// The factory creates clients based on provider configuration.
// Currently supports:
//   - Pollinations (OpenAI-compatible chat completions, URL-rendered images and videos)
package generation
