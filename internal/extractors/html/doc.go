// Package html provides an Extractor implementation for HTML documents.
// It walks block-level elements in document order, dropping scripts and
// styles, and emits one segment per block with its element type.
package html
