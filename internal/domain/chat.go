// Package domain contains core domain types for the askbox application.
package domain

import (
	"time"
)

// Format values a provider may declare for its answer content.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatText     = "text"
)

// ResponseContract is the structured triple a provider is asked to emit.
// It is produced once per provider call by the contract parser and never
// mutated; only Content is persisted.
type ResponseContract struct {
	Format  string `json:"format"`
	Content string `json:"content"`
	Brief   string `json:"brief"`
}

// ChatRecord is one stored question/answer exchange. Answer always holds
// the extracted contract content, never raw provider output.
type ChatRecord struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
