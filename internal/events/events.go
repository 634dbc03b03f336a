// Package events declares the payloads published on the event bus while a
// request moves through the runner and the executor.
package events

import "time"

// RequestStart is emitted when the runner begins reading a request document.
// Context carries the request id.
type RequestStart struct {
	Source string
}

// RequestFinish is emitted after every operation of the document completed.
type RequestFinish struct {
	Source     string
	Operations int
	Err        error
	Duration   time.Duration
}

// GraphQLStart is emitted before executing an operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing an operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// ResolverStart is emitted before a field resolver runs. Path is the
// dotted response path, unique within the request.
type ResolverStart struct {
	TypeName  string
	FieldName string
	Path      string
}

// ResolverFinish is emitted after the resolver's value was joined.
type ResolverFinish struct {
	TypeName  string
	FieldName string
	Path      string
	Err       error
	Duration  time.Duration
}
