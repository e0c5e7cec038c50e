// Package normalisers holds implementations of the driven.Normaliser port.
// The indicator subpackage turns raw feed records into canonical
// indicators.
package normalisers
