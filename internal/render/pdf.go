package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"resumeforge/internal/errors"
)

// RenderPDF converts rendered HTML to PDF bytes. A configured remote
// renderer takes precedence; otherwise the local pdfCommand is invoked with
// A4 page size and one-inch margins.
func (r *Renderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyInput,
			"HTML content must not be empty", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.PDFTimeout)
	defer cancel()

	if r.config.RendererURL != "" {
		return r.renderPDFRemote(ctx, html)
	}
	return r.renderPDFLocal(ctx, html)
}

// renderPDFRemote posts the HTML to a remote HTML-to-PDF service and
// returns the response body as PDF bytes.
func (r *Renderer) renderPDFRemote(ctx context.Context, html string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"html": html})
	if err != nil {
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			"Failed to encode renderer request", err)
	}

	url := strings.TrimRight(r.config.RendererURL, "/") + "/render"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			"Failed to create renderer request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodePDFRenderFailed,
			"PDF renderer request failed", err).WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			fmt.Sprintf("PDF renderer returned status %d: %s", resp.StatusCode, string(b)), nil)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			"Failed to read renderer response", err)
	}
	if len(pdf) == 0 {
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			"PDF renderer returned an empty document", nil)
	}
	return pdf, nil
}

// renderPDFLocal shells out to the configured HTML-to-PDF command, feeding
// HTML on stdin and reading the PDF from stdout.
func (r *Renderer) renderPDFLocal(ctx context.Context, html string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.config.PDFCommand,
		"--page-size", "A4",
		"--margin-top", "1in",
		"--margin-bottom", "1in",
		"--margin-left", "1in",
		"--margin-right", "1in",
		"--quiet",
		"-", "-")
	cmd.Stdin = strings.NewReader(html)

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			fmt.Sprintf("%s failed: %s", r.config.PDFCommand, strings.TrimSpace(errOut.String())), err)
	}
	if out.Len() == 0 {
		return nil, errors.NewRenderError(errors.ErrCodePDFRenderFailed,
			fmt.Sprintf("%s produced an empty document", r.config.PDFCommand), nil)
	}
	return out.Bytes(), nil
}

// SavePDF renders the HTML to PDF and writes it next to the other outputs
// with a timestamped filename, returning the full path.
func (r *Renderer) SavePDF(ctx context.Context, html string) (string, error) {
	pdf, err := r.RenderPDF(ctx, html)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.config.OutputDir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to create output directory", err).WithContext("dir", r.config.OutputDir)
	}

	filename := fmt.Sprintf("resume_pdf_%s.pdf", r.now().Format("20060102_150405"))
	path := filepath.Join(r.config.OutputDir, filename)
	if err := os.WriteFile(path, pdf, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to write PDF file", err).WithContext("path", path)
	}

	if r.logger != nil {
		r.logger.Info("PDF saved", "path", path, "bytes", len(pdf))
	}
	return path, nil
}
