// Package identity generates the random identifiers used for envelope and
// session identity. Identifiers are version-4 UUIDs in canonical text form;
// uniqueness is probabilistic and no counter or registry is kept.
package identity
