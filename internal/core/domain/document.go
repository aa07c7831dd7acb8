package domain

import "time"

// Well-known metadata keys carried on segments and chunks.
const (
	// MetaSource is the original filename of the uploaded document.
	MetaSource = "source"

	// MetaFileType is the detected Format of the document.
	MetaFileType = "file_type"

	// MetaElementType classifies the segment (Title, NarrativeText, ListItem, Table, TableRow).
	MetaElementType = "element_type"

	// MetaPageNumber is the 1-based page or slide number.
	MetaPageNumber = "page_number"

	// MetaRowNumber is the 1-based data row number in tabular sources.
	MetaRowNumber = "row_number"

	// MetaSheetName is the worksheet a tabular segment came from.
	MetaSheetName = "sheet_name"

	// MetaTitle is the document title, when the format records one.
	MetaTitle = "title"

	// MetaChunkID is the 0-based index of a chunk within its segment.
	MetaChunkID = "chunk_id"

	// MetaChunkTotal is the number of chunks produced from the segment.
	MetaChunkTotal = "chunk_total"
)

// Element types assigned by extractors.
const (
	ElementTitle         = "Title"
	ElementNarrativeText = "NarrativeText"
	ElementListItem      = "ListItem"
	ElementTable         = "Table"
	ElementTableRow      = "TableRow"
)

// RawDocument is an uploaded file spooled to local scratch storage.
// The ingestion service owns it and deletes Path once processing ends.
type RawDocument struct {
	// ID is the unique identifier for this upload.
	ID string

	// Tenant is the opaque owner identifier used for path scoping.
	Tenant string

	// Filename is the caller-supplied filename.
	Filename string

	// Path is the local scratch location of the file contents.
	Path string

	// Format is the detected true format.
	Format Format

	// Size is the file size in bytes.
	Size int64

	// ReceivedAt is when the upload was accepted.
	ReceivedAt time.Time
}

// Segment is plain text extracted from a RawDocument with provenance metadata.
// Metadata always contains MetaSource and MetaFileType.
type Segment struct {
	// Content is the extracted text.
	Content string

	// Metadata contains provenance key-value pairs.
	Metadata map[string]any
}

// Chunk is a bounded slice of a Segment, the unit embedded and retrieved.
// Metadata is a copy of the parent segment's plus MetaChunkID and MetaChunkTotal.
type Chunk struct {
	// Content is the text content of this chunk.
	Content string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Source returns the filename the chunk was extracted from.
func (c Chunk) Source() string {
	s, _ := c.Metadata[MetaSource].(string)
	return s
}

// ChunkID returns the chunk's index within its segment, or -1 if unset.
func (c Chunk) ChunkID() int {
	return metaInt(c.Metadata, MetaChunkID)
}

// ChunkTotal returns the number of sibling chunks, or -1 if unset.
func (c Chunk) ChunkTotal() int {
	return metaInt(c.Metadata, MetaChunkTotal)
}

// CopyMetadata creates a shallow copy of metadata. A nil map yields an empty map.
func CopyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+2)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// metaInt reads an integer metadata value regardless of its decoded numeric type.
func metaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return -1
	}
}
