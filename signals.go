package wrapz

import "github.com/zoobzio/capitan"

// Signal definitions for wrapz events.
// Signals follow the pattern: <wrapper-type>.<event>.
var (
	// CallLimiter signals.
	SignalCallLimiterExhausted = capitan.NewSignal(
		"calllimiter.exhausted",
		"Call limiter rejected a call because its quota is spent",
	)

	// IgnoreErrors signals.
	SignalIgnoreHandled = capitan.NewSignal(
		"ignore.handled",
		"Error suppressor swallowed an error of a configured kind",
	)

	// Singleton signals.
	SignalSingletonReused = capitan.NewSignal(
		"singleton.reused",
		"Singleton returned its stored instance instead of allocating",
	)

	// Limiter signals.
	SignalLimiterDuplicate = capitan.NewSignal(
		"limiter.duplicate",
		"Instance limiter returned the stored instance for a known identity value",
	)
	SignalLimiterOverflow = capitan.NewSignal(
		"limiter.overflow",
		"Instance limiter is full and returned a stored instance per its lookup policy",
	)
)

// Field keys using capitan primitive types.
var (
	// Common fields.
	FieldIdentityID = capitan.NewStringKey("identity_id") // Wrapper identity UUID
	FieldName       = capitan.NewStringKey("name")        // Wrapper name
	FieldError      = capitan.NewStringKey("error")       // Error message

	// CallLimiter fields.
	FieldLimit = capitan.NewIntKey("limit") // Configured quota or capacity

	// IgnoreErrors fields.
	FieldKind    = capitan.NewStringKey("kind")    // Matched error kind
	FieldMessage = capitan.NewStringKey("message") // Human-readable notice

	// Limiter fields.
	FieldUnique = capitan.NewStringKey("unique") // Identity attribute name
	FieldKey    = capitan.NewStringKey("key")    // Identity value, formatted
	FieldLookup = capitan.NewStringKey("lookup") // FIRST or LAST
	FieldStored = capitan.NewIntKey("stored")    // Stored instance count
)
