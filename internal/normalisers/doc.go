// Package normalisers provides implementations of the Normaliser interface
// for the accepted upload formats. Each normaliser knows how to extract text
// content from one format.
//
// Normalisers are registered with the Registry at startup.
package normalisers
