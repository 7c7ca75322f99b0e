// Package repository persists essay documents in a key-value store.
//
// Each essay lives under its own key ("essay_<id>") as one JSON document that
// is always written wholesale. A per-session pointer remembers the active
// essay, and "do-over" draft snapshots are appended under "essay_drafts_<id>".
//
// Lookups report missing or unreadable documents as absent (nil, nil) rather
// than failing: one corrupt record never hides the others. Writes surface
// store failures as *domain.StorageError.
package repository
