package entities

import (
	"errors"
	"fmt"
	"regexp"
)

// Common errors
var (
	ErrInvalidSlot      = errors.New("invalid slot name")
	ErrInvalidEncoding  = errors.New("request body is not valid UTF-8")
	ErrInvalidDocument  = errors.New("request body is not valid JSON")
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptDocument  = errors.New("stored document is not valid JSON")
)

// Slot names the place a document is stored under.
type Slot string

// DefaultSlot is used when a request does not name a slot.
const DefaultSlot Slot = "default"

var slotPattern = regexp.MustCompile(`^slot[0-9]+$`)

// EmptyDocument is returned for slots that have never been saved.
var EmptyDocument = []byte("{}")

// ParseSlot maps a raw slot name to a Slot. An empty name selects DefaultSlot.
func ParseSlot(name string) (Slot, error) {
	if name == "" || name == string(DefaultSlot) {
		return DefaultSlot, nil
	}
	if !slotPattern.MatchString(name) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidSlot)
	}
	return Slot(name), nil
}

// IsValidSlotName reports whether name would be accepted by ParseSlot.
func IsValidSlotName(name string) bool {
	_, err := ParseSlot(name)
	return err == nil
}

func (s Slot) String() string {
	return string(s)
}

// IsDefault returns true for the slot that maps to the fixed target file
func (s Slot) IsDefault() bool {
	return s == DefaultSlot
}
