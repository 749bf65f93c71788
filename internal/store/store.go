// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/askbox/internal/domain"
)

// Repository defines the interface for persisting chat history.
type Repository interface {
	// InsertChat stores one question/answer exchange. Records are never
	// updated or deleted afterwards.
	InsertChat(ctx context.Context, rec *domain.ChatRecord) error

	// ListChats returns all stored exchanges in insertion order.
	ListChats(ctx context.Context) ([]*domain.ChatRecord, error)

	// Ping verifies database connectivity and returns an error if the
	// database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
