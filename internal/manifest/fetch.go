package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/zstd"
)

// Fetch retrieves the zstd-compressed, length-prefixed manifest body at
// url and decodes it (spec §6 "wire format"). client may be nil, in
// which case http.DefaultClient is used.
func Fetch(ctx context.Context, url string, client *http.Client) (*Manifest, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifest: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	compressed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", url, err)
	}

	raw, err := decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("manifest: decompress %s: %w", url, err)
	}

	m, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("manifest: decode %s: %w", url, err)
	}
	return m, nil
}

func decompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}
