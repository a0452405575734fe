package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/hidejiunifei/faixaazul/internal/geo"
)

// Fetch reads a feed payload. http(s) sources are downloaded with client,
// anything else is opened as a local file.
func Fetch(ctx context.Context, client *http.Client, source string) (*geo.FeatureCollection, error) {
	if !isRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		// Explicitly ignore close error as it's a read-only operation
		defer func() { _ = f.Close() }()

		return geo.Decode(f)
	}

	body, err := download(ctx, client, source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	return geo.Decode(body)
}

func download(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
