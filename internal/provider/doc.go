// Package provider is the only boundary to the external text-generation
// provider.
//
// A Request is rendered into one system instruction and one user turn, sent to
// a Generator, and the result is normalized into an Outcome. Provider errors
// never cross this boundary: they are logged and classified into a
// FailureKind.
//
// Flow:
//
//	Request -> Render -> Generator.Generate -> Classify -> Outcome
package provider
