package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxImageSize = 16 << 20

// Materializer downloads a remote image and republishes it at the
// deterministic storage key for its subject.
type Materializer struct {
	httpClient *http.Client
	uploader   Uploader
	log        *zap.Logger
}

func NewMaterializer(uploader Uploader, log *zap.Logger) *Materializer {
	return &Materializer{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		uploader:   uploader,
		log:        log,
	}
}

// Materialize fetches sourceURL and uploads the bytes under the subject's
// key, returning the key. Download and upload failures both surface as
// errors; callers treat them as reportable, not fatal.
func (m *Materializer) Materialize(ctx context.Context, subject Subject, id int, sourceURL string) (string, error) {
	body, err := m.download(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", sourceURL, err)
	}

	ext := FileExt(sourceURL)
	key := Key(subject, id, ext)
	if err := m.uploader.Put(ctx, key, ContentType(ext), body); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	m.log.Debug("image materialized",
		zap.String("subject", string(subject)),
		zap.Int("id", id),
		zap.String("key", key),
	)
	return key, nil
}

func (m *Materializer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
}
