// Package types provides the annotated value model shared by every stage of
// the scrubbing pipeline.
//
// # Overview
//
// An event payload is a tree of [Annotated] values. Each node pairs an
// optional value with a [Meta] record that explains what happened to it:
//
//   - Errors describe why a value is invalid or missing (for example
//     value_too_long or too_deep). An error may carry a snapshot of the
//     offending original value.
//   - Remarks record which rule altered which byte range of a string.
//   - OriginalLength remembers the size of a value before it was shortened.
//
// A node whose value has been removed still keeps its meta, so the reason
// for the removal survives serialization:
//
//	var email types.Annotated[string]
//	email.Set("a@b.com")
//	email.Clear()
//	email.Meta().AddError(types.NewError(types.ErrorInvalidData))
//	// email.IsPresent() == false, email.Meta().IsEmpty() == false
//
// # Untyped Values
//
// [Value] is a tagged variant for payload parts without a fixed schema:
// booleans, integers, floats, strings, arrays and insertion-ordered objects.
// Typed protocol structures embed Values for their extension fields.
//
// # JSON
//
// [ParseJSON] decodes a payload while preserving object key order and
// reading back a top-level "_meta" tree. [MarshalJSON] writes the payload and
// a parallel "_meta" tree mirroring the payload's paths, so provenance can be
// inspected without reversing any redaction.
package types
