package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// ExportFormat is a message download format
type ExportFormat string

const (
	ExportPDF      ExportFormat = "pdf"
	ExportDOCX     ExportFormat = "docx"
	ExportMarkdown ExportFormat = "md"
)

// ParseExportFormat validates a user-supplied format name
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case ExportPDF, ExportDOCX, ExportMarkdown:
		return f, nil
	case "markdown":
		return ExportMarkdown, nil
	default:
		return "", fmt.Errorf("invalid export format %q (use pdf, docx or md)", s)
	}
}

// Download is a binary file returned by an export endpoint
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportMessage downloads a message rendered in the given format
func (c *Client) ExportMessage(ctx context.Context, messageID string, format ExportFormat) (*Download, error) {
	path := fmt.Sprintf("/messages/%s/export/%s", url.PathEscape(messageID), format)
	d, err := c.download(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}
	if d.Filename == "" {
		d.Filename = defaultExportName(messageID, string(format))
	}
	return d, nil
}

// MessagePDF downloads the legacy PDF rendering of a message
func (c *Client) MessagePDF(ctx context.Context, messageID string) (*Download, error) {
	d, err := c.download(ctx, "/messages/"+url.PathEscape(messageID)+"/pdf")
	if err != nil {
		return nil, fmt.Errorf("pdf download failed: %w", err)
	}
	if d.Filename == "" {
		d.Filename = defaultExportName(messageID, "pdf")
	}
	return d, nil
}

func (c *Client) download(ctx context.Context, path string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Del("Accept")
	if err := c.authorize(req, false); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download: %w", err)
	}

	d := &Download{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	return d, nil
}

func defaultExportName(messageID, ext string) string {
	short := messageID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("deepship-response-%s.%s", short, ext)
}
