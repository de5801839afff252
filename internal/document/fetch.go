package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	downloadAttempts = 3
	minPDFSize       = 1024 // smaller downloads are error pages, not PDFs
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// ensureLocal returns a local file path for ref and an optional temp path the
// caller must remove. A trailing #page fragment is stripped first.
func ensureLocal(ctx context.Context, ref string) (string, string, error) {
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	switch {
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), "", nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		p, err := downloadHTTPToTemp(ctx, ref)
		return p, p, err
	case strings.HasPrefix(ref, "s3://"):
		p, err := downloadS3ToTemp(ctx, ref)
		return p, p, err
	default:
		return ref, "", nil
	}
}

// downloadHTTPToTemp fetches a PDF over HTTP with bounded retries. Portal
// servers intermittently reset connections, so transient failures are retried
// with a short linear backoff.
func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		path, err := tryDownloadHTTP(ctx, url)
		if err == nil {
			return path, nil
		}
		lastErr = err
		log.Warn().Err(err).Str("url", url).Int("attempt", attempt).Msg("pdf download failed")
		if attempt < downloadAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
	}
	return "", fmt.Errorf("download %s after %d attempts: %w", url, downloadAttempts, lastErr)
}

func tryDownloadHTTP(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "regproc-dl-*.pdf")
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := validatePDF(f.Name(), n); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// validatePDF rejects downloads that are not actually PDFs (login redirects,
// HTML error pages) before they reach the parser.
func validatePDF(path string, size int64) error {
	if size < minPDFSize {
		return fmt.Errorf("downloaded file too small (%d bytes)", size)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect file type: %w", err)
	}
	if !mt.Is("application/pdf") {
		return fmt.Errorf("downloaded file is %s, not a pdf", mt.String())
	}
	return nil
}

// downloadS3ToTemp fetches s3://bucket/key to a temp file via the default AWS
// credential chain.
func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := path[:slash]
	key := path[slash+1:]

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	cli := s3.NewFromConfig(cfg)

	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()

	f, err := os.CreateTemp("", "regproc-s3-*.pdf")
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, out.Body)
	f.Close()
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := validatePDF(f.Name(), n); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("downloaded s3 pdf to temp")
	return f.Name(), nil
}
