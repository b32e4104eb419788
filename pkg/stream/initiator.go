package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

const sendPath = "/chat/send/stream"

// Request is one chat send
type Request struct {
	Content        string
	Mode           chat.Mode
	ConversationID string
	Attachments    []Attachment
}

// Opener starts a streaming chat response
type Opener interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Initiator posts the multipart chat request and hands back the NDJSON body
type Initiator struct {
	baseURL    string
	httpClient *http.Client
	tokens     api.TokenSource
}

// NewInitiator creates an initiator. The HTTP client has no overall timeout
// since responses stream for as long as the model runs; cancel via ctx.
func NewInitiator(baseURL string, tokens api.TokenSource) *Initiator {
	if tokens == nil {
		tokens = api.StaticToken("")
	}
	return &Initiator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
	}
}

// Open sends req and returns the response body on a 2xx status
func (i *Initiator) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	body, contentType, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+sendPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/x-ndjson, text/plain")
	if token := i.tokens.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	logger.WithComponent("stream").Debug("opening stream",
		"mode", req.Mode.String(),
		"conversation_id", req.ConversationID,
		"files", len(req.Attachments))

	resp, err := i.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := api.CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// encodeRequest builds the multipart form the chat endpoint expects
func encodeRequest(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"content", req.Content},
		{"deep_search", strconv.FormatBool(req.Mode.DeepSearch())},
		{"lab_mode", strconv.FormatBool(req.Mode.LabMode())},
	}
	if req.ConversationID != "" {
		fields = append(fields, struct{ name, value string }{"conversation_id", req.ConversationID})
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write %s field: %w", f.name, err)
		}
	}

	for _, a := range req.Attachments {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(a.Name)))
		h.Set("Content-Type", a.MIME)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to add %s: %w", a.Name, err)
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", fmt.Errorf("failed to add %s: %w", a.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
