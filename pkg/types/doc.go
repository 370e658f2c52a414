// Package types defines the Store contract, entity types, and standard
// errors for the Peregrin item/event graph store.
package types
