package flow

import (
	"errors"
	"time"
)

var ErrEntryNotFound = errors.New("config entry not found")

type Entry struct {
	EntryID   string         `json:"entry_id" yaml:"entry_id"`
	Domain    string         `json:"domain" yaml:"domain"`
	Title     string         `json:"title" yaml:"title"`
	Data      map[string]any `json:"data" yaml:"data"`
	Options   map[string]any `json:"options" yaml:"options"`
	UniqueID  string         `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	Source    string         `json:"source" yaml:"source"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

type EntryReader interface {
	Entries(domain string) []Entry
	Get(entryID string) (Entry, bool)
}

type EntryRegistry interface {
	EntryReader
	Add(entry Entry) error
	Remove(entryID string) error
	UpdateOptions(entryID string, options map[string]any) error
}
