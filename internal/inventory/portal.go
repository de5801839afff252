// Package inventory lists already-published documents from the two places
// they live: the portal admin API and the MongoDB metadata store. Both
// feed the dedup decision before anything is uploaded.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/config"
	"github.com/mevzuatgpt/regproc/internal/match"
)

// PortalClient talks to the portal admin API: bearer login, paginated
// document listing, and bulk section upload.
type PortalClient struct {
	http    *http.Client
	baseURL string
	email   string
	pass    string
	limit   int
	maxPage int
	token   string
}

func NewPortalClient(cfg config.PortalAPIConfig) *PortalClient {
	limit := cfg.PageLimit
	if limit < 1 {
		limit = 100
	}
	maxPage := cfg.MaxListPages
	if maxPage < 1 {
		maxPage = 50
	}
	return &PortalClient{
		http:    &http.Client{Timeout: cfg.ListTimeout},
		baseURL: cfg.BaseURL,
		email:   cfg.Email,
		pass:    cfg.Password,
		limit:   limit,
		maxPage: maxPage,
	}
}

// Login obtains a bearer token for subsequent calls.
func (c *PortalClient) Login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"email": c.email, "password": c.pass})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("portal login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("portal login: HTTP %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("portal login decode: %w", err)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("portal login: empty access token")
	}
	c.token = out.AccessToken
	return nil
}

// Documents lists every published document, paging until a short page or
// the page cap. Records come back as loose field maps so the dedup layer
// can resolve its name aliases.
func (c *PortalClient) Documents(ctx context.Context) ([]match.Record, error) {
	if c.token == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}
	var all []match.Record
	for page := 0; page < c.maxPage; page++ {
		url := fmt.Sprintf("%s/api/admin/documents?skip=%d&limit=%d", c.baseURL, page*c.limit, c.limit)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("portal list page %d: %w", page, err)
		}
		var batch []match.Record
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("portal list page %d: HTTP %d", page, resp.StatusCode)
		}
		batch, err = decodeDocumentPage(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("portal list page %d: %w", page, err)
		}
		all = append(all, batch...)
		if len(batch) < c.limit {
			break
		}
	}
	log.Info().Int("documents", len(all)).Msg("portal inventory listed")
	return all, nil
}

// decodeDocumentPage accepts both a bare array and the wrapped
// {"documents": [...]} shape the API has used across versions.
func decodeDocumentPage(r io.Reader) ([]match.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var bare []match.Record
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var wrapped struct {
		Documents []match.Record `json:"documents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Documents, nil
}

// BulkUpload posts the split section files and their metadata manifest to
// the portal in one multipart request.
func (c *PortalClient) BulkUpload(ctx context.Context, filePaths []string, sidecarPath string) error {
	if c.token == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, path := range filePaths {
		if err := addFilePart(w, "files", path); err != nil {
			return err
		}
	}
	if sidecarPath != "" {
		if err := addFilePart(w, "metadata", sidecarPath); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/admin/documents/bulk-upload", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bulk upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bulk upload: HTTP %d: %s", resp.StatusCode, body)
	}
	log.Info().Int("files", len(filePaths)).Msg("bulk upload accepted")
	return nil
}

func addFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
