// Package normalize applies the schema rules declared by protocol field
// attributes before trimming and scrubbing.
package normalize
