// Package protocol defines the typed event schema walked by the scrubbing
// pipeline.
//
// Each structure implements processor.Traversable and declares static
// attributes for its fields: which ones carry personal data, their length
// and size limits and their permitted characters. Keys the schema does not
// declare are kept in an Other object and visited after the declared fields.
//
// [EventFromValue] converts a parsed payload into an [Event]. Fields of the
// wrong shape become absent values with an invalid_data error that keeps the
// original. [Event.ToValue] converts back, declared fields first.
package protocol
