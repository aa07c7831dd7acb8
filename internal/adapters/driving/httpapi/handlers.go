package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type askBody struct {
	Tenant   string `json:"tenant"`
	Filename string `json:"filename"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type sourceJSON struct {
	Rank     int            `json:"rank"`
	Score    float64        `json:"score"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type fileJSON struct {
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Chunks    int       `json:"chunks"`
	RawKey    string    `json:"raw_key,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func tenantOf(c fiber.Ctx, field string) string {
	if field != "" {
		return field
	}
	return c.Get(TenantHeader)
}

// upload ingests a multipart upload with a "file" part and a "tenant" field.
func (s *Server) upload(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fmt.Errorf("%w: missing file part: %v", domain.ErrInvalidArgument, err))
	}
	f, err := fh.Open()
	if err != nil {
		return errorResponse(c, fmt.Errorf("httpapi: opening upload: %w", err))
	}
	defer f.Close()

	result, err := s.ports.Ingest.Ingest(c.Context(), driving.IngestRequest{
		Tenant:   tenantOf(c, c.FormValue("tenant")),
		Filename: fh.Filename,
		Body:     f,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	resp := fiber.Map{
		"message":          fmt.Sprintf("File '%s' processed and uploaded successfully!", result.Filename),
		"tenant":           result.Tenant,
		"filename":         result.Filename,
		"format":           string(result.Format),
		"segments":         result.Segments,
		"extracted_chunks": result.Chunks,
	}
	if result.RawKey != "" {
		resp["raw_key"] = result.RawKey
	}
	if t := result.Transfer; t != nil {
		failed := make([]fiber.Map, 0, len(t.Failed))
		for _, fe := range t.Failed {
			failed = append(failed, fiber.Map{"path": fe.Path, "error": fe.Err.Error()})
		}
		resp["transfer"] = fiber.Map{
			"prefix":   t.Prefix,
			"uploaded": len(t.Uploaded),
			"failed":   failed,
		}
	}
	return c.JSON(resp)
}

// ask answers a JSON question about one ingested file.
func (s *Server) ask(c fiber.Ctx) error {
	var body askBody
	if err := c.Bind().JSON(&body); err != nil {
		return errorResponse(c, fmt.Errorf("%w: invalid request body", domain.ErrInvalidArgument))
	}

	answer, err := s.ports.Ask.Ask(c.Context(), driving.AskRequest{
		Tenant:   tenantOf(c, body.Tenant),
		Filename: body.Filename,
		Question: body.Question,
		TopK:     body.TopK,
	})
	if err != nil {
		resp := fiber.Map{"error": err.Error()}
		if answer != nil {
			resp["state"] = answer.State.String()
		}
		return c.Status(statusFor(err)).JSON(resp)
	}

	sources := make([]sourceJSON, 0, len(answer.Sources))
	for _, hit := range answer.Sources {
		sources = append(sources, sourceJSON{
			Rank:     hit.Rank,
			Score:    hit.Score,
			Content:  hit.Chunk.Content,
			Metadata: hit.Chunk.Metadata,
		})
	}
	return c.JSON(fiber.Map{
		"status":            "success",
		"result":            answer.Text,
		"id":                answer.ID,
		"turns":             answer.Turns,
		"context_truncated": answer.ContextTruncated,
		"sources":           sources,
	})
}

func (s *Server) listFiles(c fiber.Ctx) error {
	if s.ports.Files == nil {
		return errorResponse(c, domain.ErrNotImplemented)
	}
	records, err := s.ports.Files.List(c.Context(), tenantOf(c, c.Query("tenant")))
	if err != nil {
		return errorResponse(c, err)
	}

	files := make([]fileJSON, 0, len(records))
	for _, rec := range records {
		files = append(files, fileJSON{
			Filename:  rec.Filename,
			Format:    string(rec.Format),
			Chunks:    rec.Chunks,
			RawKey:    rec.RawKey,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return c.JSON(fiber.Map{"files": files, "count": len(files)})
}

func (s *Server) fileLink(c fiber.Ctx) error {
	if s.ports.Files == nil {
		return errorResponse(c, domain.ErrNotImplemented)
	}
	filename := strings.TrimSpace(c.Query("filename"))
	url, err := s.ports.Files.Link(c.Context(), tenantOf(c, c.Query("tenant")), filename)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
