// Package correlation tracks in-flight requests by envelope identity.
//
// A [Table] maps an envelope id to a single-shot [Call]. The dispatcher
// resolves or rejects entries as matching envelopes arrive; connection loss
// drains every entry with one error. Each Call completes at most once and is
// removed from the table when it does.
package correlation
