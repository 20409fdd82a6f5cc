// Package domain holds the askdocs entities and the rules that need no
// infrastructure: uploads and the documents parsed from them, passages
// (chunks) and their index entries, the persisted index manifest and its
// identity, answers, settings and the error kinds callers classify on.
//
// Every other package may import domain. Domain imports only the
// standard library.
package domain
