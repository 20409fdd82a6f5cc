// Package services holds askdocs' use cases. Each service implements a
// driving port and reaches storage, models and parsers only through
// driven ports, so the same logic runs under every front end and in tests
// with in-memory fakes.
package services
