// Package envelope defines the protocol message unit exchanged between a
// texto client and its server, and its JSON text wire encoding.
//
// One transport frame carries exactly one envelope:
//
//	{"id":"<uuid>","client_id":"<session>"|null,"kind":"send","data":{...}|null}
//
// Acknowledgments reuse the id of the envelope they acknowledge; every other
// envelope gets a fresh identity from [github.com/germanamz/texto/pkg/identity].
package envelope
