// Package memory provides the per-conversation bounded exchange log.
//
// Model:
//   - One log per Key (a chat channel). Logs are created lazily on first append.
//   - Each log holds at most MaxEntries entries; the oldest entries are evicted first.
//   - Entries are never mutated after append. Nothing is persisted across restarts.
package memory
