/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrStreamNotFound is returned when a stream header does not exist.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrConcurrencyConflict is returned when a stream-touching transaction
	// loses the race on the header's e-tag, or when the header already
	// exists where it was expected not to.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrDuplicateEvent is returned when an event id has already been
	// written to the partition.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrIncludedOperationConflict is returned when an included operation
	// fails because its target row already exists.
	ErrIncludedOperationConflict = errors.New("included operation conflict")

	// ErrInvalidOperation is returned for illegal operation sequences and
	// other misuse detected before or during submission.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidInput is returned when argument validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// StreamNotFoundError reports an operation against a partition that holds
// no stream header.
type StreamNotFoundError struct {
	Partition *Partition
}

func (e *StreamNotFoundError) Error() string {
	return fmt.Sprintf("stream header was not found in partition %q", e.Partition)
}

func (e *StreamNotFoundError) Is(target error) bool {
	return target == ErrStreamNotFound
}

// ConcurrencyConflictError reports a lost optimistic-concurrency race.
type ConcurrencyConflictError struct {
	Partition *Partition
	Details   string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent write detected in partition %q: %s", e.Partition, e.Details)
}

func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// DuplicateEventError reports an event id that is already present in the
// partition.
type DuplicateEventError struct {
	Partition *Partition
	ID        string
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("event with id %q already exists in partition %q", e.ID, e.Partition)
}

func (e *DuplicateEventError) Is(target error) bool {
	return target == ErrDuplicateEvent
}

// IncludedOperationConflictError reports an included operation whose target
// row already exists.
type IncludedOperationConflictError struct {
	Partition *Partition
	Entity    *Entity
	Kind      OperationKind
}

func (e *IncludedOperationConflictError) Error() string {
	return fmt.Sprintf("included %s operation on row %q conflicts with an existing row in partition %q",
		e.Kind, e.Entity.RowKey, e.Partition)
}

func (e *IncludedOperationConflictError) Is(target error) bool {
	return target == ErrIncludedOperationConflict
}

// ValidationError reports a rejected argument at the public surface.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter %q: %s", e.Param, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

func newStreamNotFoundError(p *Partition) error {
	return &StreamNotFoundError{Partition: p}
}

func newStreamChangedError(p *Partition) error {
	return &ConcurrencyConflictError{Partition: p, Details: "stream header has changed since it was opened"}
}

func newStreamChangedOrExistsError(p *Partition) error {
	return &ConcurrencyConflictError{Partition: p, Details: "stream header has changed or already exists"}
}

func newEventVersionExistsError(p *Partition, version int64) error {
	return &ConcurrencyConflictError{
		Partition: p,
		Details:   fmt.Sprintf("event at version %d already exists", version),
	}
}

func newDuplicateEventError(p *Partition, id string) error {
	return &DuplicateEventError{Partition: p, ID: id}
}

func newIncludedOperationConflictError(p *Partition, op *EntityOperation) error {
	return &IncludedOperationConflictError{Partition: p, Entity: op.Entity, Kind: op.Kind}
}

func invalidOperationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

func validationError(param, message string) error {
	return &ValidationError{Param: param, Message: message}
}

// IsStreamNotFound checks if an error signals a missing stream.
func IsStreamNotFound(err error) bool {
	return errors.Is(err, ErrStreamNotFound)
}

// IsConcurrencyConflict checks if an error signals a lost write race.
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsDuplicateEvent checks if an error signals a duplicate event id.
func IsDuplicateEvent(err error) bool {
	return errors.Is(err, ErrDuplicateEvent)
}

// IsIncludedOperationConflict checks if an error signals a conflicting
// included operation.
func IsIncludedOperationConflict(err error) bool {
	return errors.Is(err, ErrIncludedOperationConflict)
}

// IsInvalidOperation checks if an error signals library misuse.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}
