package extractors

import (
	"github.com/custodia-labs/docrag/internal/extractors/csv"
	"github.com/custodia-labs/docrag/internal/extractors/docx"
	"github.com/custodia-labs/docrag/internal/extractors/html"
	"github.com/custodia-labs/docrag/internal/extractors/pdf"
	"github.com/custodia-labs/docrag/internal/extractors/plaintext"
	"github.com/custodia-labs/docrag/internal/extractors/pptx"
	"github.com/custodia-labs/docrag/internal/extractors/xlsx"
	"github.com/custodia-labs/docrag/internal/extractors/xml"
)

// RegisterDefaults registers all built-in extractors with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(plaintext.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(csv.New())
	r.Register(xlsx.New())
	r.Register(html.New())
	r.Register(xml.New())
}

// NewDefaultRegistry returns a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
