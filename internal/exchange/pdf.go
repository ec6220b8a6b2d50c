package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/careertrack/internal"
)

// PDFGreeting seeds a PDF conversation once the upload has been processed.
const PDFGreeting = "PDF processed successfully! I'm ready to answer questions about this research paper. What would you like to know?"

// PDFClient talks to the research-paper Q&A service.
type PDFClient struct {
	c client
}

// NewPDFClient creates a client for the service at baseURL
func NewPDFClient(baseURL string, opts ...Option) *PDFClient {
	return &PDFClient{c: newClient("pdf", baseURL, opts...)}
}

// Upload sends the PDF at path; the service indexes it under sessionID.
func (p *PDFClient) Upload(ctx context.Context, sessionID, path string) error {
	if err := ValidatePDF("file", path); err != nil {
		return err
	}
	_, err := p.c.postMultipart(ctx, "/upload/"+url.PathEscape(sessionID), "", nil,
		[]filePart{{field: "file", path: path}}, nil)
	return err
}

// Ask implements Exchanger
func (p *PDFClient) Ask(ctx context.Context, req Request) (Reply, error) {
	path := "/ask/" + url.PathEscape(req.SessionID)
	var resp textResponse
	echoed, err := p.c.postJSON(ctx, path, req.ID, map[string]string{"question": req.Question}, &resp)
	if err != nil {
		return Reply{RequestID: echoed}, err
	}
	text, err := resp.text(p.c.tool, path)
	if err != nil {
		return Reply{RequestID: echoed}, err
	}
	return Reply{RequestID: echoed, Text: text}, nil
}

// ValidatePDF checks that path names a readable PDF file.
func ValidatePDF(field, path string) error {
	if strings.TrimSpace(path) == "" {
		return &internal.ValidationError{Field: field, Message: "no file selected"}
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return &internal.ValidationError{Field: field, Message: "please upload a PDF file only"}
	}

	f, err := os.Open(path)
	if err != nil {
		return &internal.ValidationError{Field: field, Message: err.Error()}
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	if ct := http.DetectContentType(head[:n]); ct != "application/pdf" {
		return &internal.ValidationError{Field: field, Message: fmt.Sprintf("%s is %s, not a PDF", filepath.Base(path), ct)}
	}
	return nil
}
