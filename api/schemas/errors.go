package schemas

import "errors"

// -- Error Taxonomy --
//
// Every terminal failure surfaced by the engine wraps one of these sentinels
// so callers can branch with errors.Is without parsing messages.

var (
	// ErrFrameNotFound means a segment of a frame path could not be resolved
	// within its bounded wait. Recoverable: the caller may retry or re-derive
	// the path from the frame tree.
	ErrFrameNotFound = errors.New("frame not found")

	// ErrCollectionFailed means a tier's enumeration step threw. Internal to
	// the engine it triggers escalation to the next tier; it only reaches a
	// caller when every tier is exhausted by failure.
	ErrCollectionFailed = errors.New("collection failed")

	// ErrEmptyResult means a tier ran cleanly but found zero interactive
	// elements. Distinct from ErrCollectionFailed; also triggers escalation.
	ErrEmptyResult = errors.New("no interactive elements")

	// ErrReferenceNotFound means a stored reference id lookup failed, either
	// because the id never existed or because a later snapshot of the same
	// frame key invalidated it. Always surfaced, never retried.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrDispatchFailed means a resolve or click step's underlying protocol
	// call failed, typically because the document navigated between snapshot
	// and click. Not retried: a stale reference cannot succeed.
	ErrDispatchFailed = errors.New("dispatch failed")
)
