// Package services defines the shared error taxonomy and context plumbing
// used by the external-provider clients and pipeline stages.
//
// Provider failures are wrapped with one of the sentinel errors so the
// pipeline can classify them without inspecting provider-specific types:
// source problems (ErrExternalTool, ErrNotFound), caller mistakes
// (ErrValidation, ErrConfiguration), and retryable conditions
// (ErrTransient).
package services
