package dataset

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"causal-insights-go/internal/logger"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Fetch resolves a corpus location to a local file path. Local paths pass
// through; http(s) URLs are downloaded into destDir with exponential-backoff
// retries, since corpus exports live behind flaky object storage.
func Fetch(location, destDir string) (string, error) {
	lower := strings.ToLower(location)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return location, nil
	}

	log := logger.ForComponent("dataset.fetch").WithField("url", location)
	dest := filepath.Join(destDir, "corpus.xlsx")

	var lastErr error
	operation := func() error {
		resp, err := httpClient.Get(location)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			return lastErr
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status: %s", resp.Status)
			return backoff.Permanent(lastErr)
		}
		f, err := os.Create(dest)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		defer f.Close()
		if _, err := io.Copy(f, resp.Body); err != nil {
			lastErr = err
			return err
		}
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, b); err != nil {
		log.WithError(lastErr).Error("corpus download failed")
		return "", fmt.Errorf("fetch corpus: %w", lastErr)
	}
	log.WithField("dest", dest).Info("corpus downloaded")
	return dest, nil
}
