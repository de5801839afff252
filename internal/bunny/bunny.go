// Package bunny uploads split sections to Bunny.net storage and returns
// their CDN URLs.
package bunny

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/config"
)

// Client performs storage-zone operations. The storage API authenticates
// with the AccessKey header and answers 201 on a stored object.
type Client struct {
	http        *http.Client
	apiKey      string
	zone        string
	regionHost  string
	cdnEndpoint string
	folder      string
}

func NewClient(cfg config.BunnyConfig) *Client {
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		apiKey:      cfg.APIKey,
		zone:        cfg.StorageZone,
		regionHost:  cfg.RegionHost,
		cdnEndpoint: strings.TrimRight(cfg.CDNEndpoint, "/"),
		folder:      strings.Trim(cfg.Folder, "/"),
	}
}

func (c *Client) storageURL(filename string) string {
	base := c.regionHost
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(base, "/"), c.zone, c.folder, url.PathEscape(filename))
}

// CDNURL is the public address of an uploaded file.
func (c *Client) CDNURL(filename string) string {
	return fmt.Sprintf("%s/%s/%s", c.cdnEndpoint, c.folder, url.PathEscape(filename))
}

// Upload stores the file under its base name and returns the CDN URL.
func (c *Client) Upload(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	filename := path.Base(filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.storageURL(filename), f)
	if err != nil {
		return "", err
	}
	req.ContentLength = info.Size()
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("bunny upload %s: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("bunny upload %s: HTTP %d: %s", filename, resp.StatusCode, body)
	}
	cdn := c.CDNURL(filename)
	log.Debug().Str("file", filename).Str("cdn", cdn).Msg("bunny upload stored")
	return cdn, nil
}

// Delete removes a previously uploaded file.
func (c *Client) Delete(ctx context.Context, filename string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.storageURL(filename), nil)
	if err != nil {
		return err
	}
	req.Header.Set("AccessKey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bunny delete %s: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("bunny delete %s: HTTP %d", filename, resp.StatusCode)
	}
	return nil
}
