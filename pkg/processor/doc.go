// Package processor drives pipeline stages over annotated value trees.
//
// A stage implements [Processor]. [ProcessValue] walks a tree depth first,
// calling BeforeProcess on entry to each node, the leaf hook for strings,
// numbers and booleans, and AfterProcess on exit. Typed structures implement
// [Traversable] and visit their fields in declaration order; untyped values
// are visited in insertion order. Identical input therefore always yields
// identical output and meta ordering.
//
// # Processing State
//
// Each node is addressed by a [ProcessingState]: a depth index into a frame
// stack shared by the whole traversal. A frame records the segment that led
// to the node (key, index or pair), its [FieldAttrs] and its [ValueType]
// tags. Selectors match against the frames from the root to the current
// node.
//
// # Actions
//
// Hooks steer the traversal by returning an action error:
//
//   - DeleteSoft clears the value and keeps its meta.
//   - DeleteHard clears the value and its meta.
//   - AbortTransaction stops the whole traversal and is returned to the
//     caller unchanged.
//
// Array items deleted either way are removed from their array. Object keys
// survive soft deletes as absent entries.
package processor
