// Package selector implements the selector language used to address fields
// of an event.
//
// A selector is a boolean expression over paths:
//
//	user.email
//	request.headers.authorization || $user.*
//	**.password && !extra.'safe.field'
//	$string, $number
//
// Path items are separated by a dot or by whitespace. An item is a key
// (matched case-insensitively), a quoted key, a numeric index, a $type tag,
// "*" for exactly one segment or "**" for any number of segments. Paths are
// anchored at the root of the event unless their first item is a $type,
// which may match any ancestor. "&&" binds tighter than "||"; "," is an
// alias of "||" and "!" negates its operand.
//
// [Parse] compiles a selector into a [Spec]. A Spec is immutable and safe
// for concurrent use; [Spec.Matches] evaluates it against the frames of a
// processor.ProcessingState.
package selector
