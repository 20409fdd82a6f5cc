// Package driven declares what the core services need from the outside
// world: parsing uploads, splitting them into passages, embedding, the
// vector index and its persistence, the answer synthesizer, settings and
// prompts. Adapters under internal/adapters/driven implement these
// interfaces; this package imports nothing but domain.
package driven
