package email

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

type Message struct {
	To          string
	CC          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers a composed complaint.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ImageFetcher downloads report images so they can be attached.
type ImageFetcher struct {
	Client *http.Client
}

// Fetch returns one attachment per URL, named image1.jpg, image2.jpg, ...
// Any failed download fails the whole email.
func (f *ImageFetcher) Fetch(ctx context.Context, urls []string) ([]Attachment, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	out := make([]Attachment, 0, len(urls))
	for i, u := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", u, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", u, err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", u, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("failed to retrieve FracTracker photo from %q: status %d", u, resp.StatusCode)
		}
		out = append(out, Attachment{
			FileName:    fmt.Sprintf("image%d.jpg", i+1),
			ContentType: "image/jpeg",
			Content:     data,
		})
	}
	return out, nil
}
