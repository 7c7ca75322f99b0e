package domain

import (
	"errors"
	"fmt"
)

// ErrStorage is the category of every failure reported by the key-value store.
var ErrStorage = errors.New("storage error")

// ErrQuotaExceeded is returned by stores that refuse a write because they are full.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrSuggestion is the category of every failure of the rewrite suggestion gateway.
var ErrSuggestion = errors.New("suggestion error")

// ErrKeyNotFound is returned by key-value stores for a key that holds no value.
var ErrKeyNotFound = errors.New("key not found")

// ErrInvalidStep is returned when a step number is outside 1..9.
var ErrInvalidStep = errors.New("invalid step")

// ErrEssayNotFound is returned by operations that require an existing document.
// Plain lookups report absence as a nil document instead.
var ErrEssayNotFound = errors.New("essay not found")

// StorageError wraps a store failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes every StorageError match ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// SuggestionError carries a human-readable message from the rewrite gateway.
type SuggestionError struct {
	Message string
	Cause   error
}

func (e *SuggestionError) Error() string {
	if e.Cause == nil {
		return "suggestion: " + e.Message
	}
	return fmt.Sprintf("suggestion: %s: %v", e.Message, e.Cause)
}

func (e *SuggestionError) Unwrap() error { return e.Cause }

// Is makes every SuggestionError match ErrSuggestion.
func (e *SuggestionError) Is(target error) bool { return target == ErrSuggestion }
