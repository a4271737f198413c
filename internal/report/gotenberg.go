package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// GotenbergClient converts an HTML document to PDF through Gotenberg's
// chromium route.
type GotenbergClient struct {
	Endpoint string
	Client   *http.Client
}

func NewGotenbergClient(endpoint string, client *http.Client) *GotenbergClient {
	return &GotenbergClient{Endpoint: endpoint, Client: client}
}

// A4 in inches, the paper size every document is rendered on.
var pdfOptions = map[string]string{
	"paperWidth":   "8.27",
	"paperHeight":  "11.7",
	"marginTop":    "0.4",
	"marginBottom": "0.4",
	"marginLeft":   "0.4",
	"marginRight":  "0.4",
	"waitDelay":    "100",
}

func (g *GotenbergClient) ConvertHTML(ctx context.Context, filename, html string) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("gotenberg client not initialized")
	}
	endpoint := strings.TrimRight(g.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// Gotenberg requires the main file to be named index.html.
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}

	for field, value := range pdfOptions {
		if err := writer.WriteField(field, value); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filename, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}
