// Package executor answers structured queries against a schema.Registry and a
// resolver.Table.
//
// # Overview
//
// A Request names an operation (query or mutation) and carries a tree of
// Selection nodes, already parsed: the executor never sees query text. The
// executor walks the tree depth first. For each selected field it
//
//  1. looks the field up on the parent type; an unknown field is reported at
//     its path and written as null, and its siblings are unaffected,
//  2. checks the selection shape (sub-selections on objects only),
//  3. binds arguments: variables are substituted, declared defaults applied,
//     scalars coerced, and a missing non-null argument is an error,
//  4. invokes the bound resolver, or reads the field off the parent value
//     when no resolver is registered (resolver.Default), and joins the result
//     if the resolver returned a resolver.Pending,
//  5. completes the value by its declared type.
//
// # Value Completion
//
//   - Non-Null: complete the inner type; a null result records a
//     NonNullViolationError (unless an error was already recorded at that
//     path) and propagates null to the nearest nullable ancestor. If there is
//     none, the response data is null.
//   - List: every element is completed independently, in order. A null
//     element for a non-null inner type nulls the whole list.
//   - Leaf: the value is serialized for its scalar. ID keeps strings as
//     strings and integers as integers.
//   - Object: an entity.Ref or a bare scalar identifier is first dereferenced
//     through the target type's loader (resolver.Table.RegisterLoader); a
//     missing loader is an UnresolvedReferenceError. The sub-selection is then
//     executed with the entity as source.
//
// # Scheduling
//
// Query siblings are resolved one at a time unless WithParallelism allows
// more, in which case they run on an errgroup bounded at that limit. Root
// mutation fields always run one at a time, in document order, so each
// observes the side effects of the ones before it.
//
// # Errors
//
// Field failures become located GraphQLErrors carrying a "code" extension
// (see ErrorCode) next to partial data. Request-level failures produce null
// data and exactly one error: schema not loaded, resolvers that do not bind
// (including a root field without a resolver), an unknown root type, and a
// context cancelled while a resolver was being awaited.
package executor
