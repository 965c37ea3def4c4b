// Package trimming enforces structural limits on annotated value trees.
//
// The stage runs independently of PII rules. Strings longer than their
// field's max_chars, or the global limit, keep a prefix followed by "..."
// and record a truncate remark, a value_too_long error and the original
// length. Containers over their item limit keep their head. Containers at
// or beyond the maximum depth are emptied with a too_deep error, so the
// traversal never descends further regardless of input shape.
package trimming
