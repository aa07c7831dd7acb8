// Package extractors turns uploaded files into ordered plain-text segments.
//
// Each format has its own subpackage implementing driven.Extractor. The
// Registry dispatches on the detected format and never fails: unsupported
// formats and extractor errors are logged and produce no segments, so one
// bad file cannot abort a batch.
//
// Extractors are registered with the Registry at startup via RegisterDefaults.
package extractors
