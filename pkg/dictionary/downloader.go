package dictionary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// DefaultURL is the upstream CMU Pronouncing Dictionary.
const DefaultURL = "https://raw.githubusercontent.com/cmusphinx/cmudict/master/cmudict.dict"

// Downloader fetches the pronouncing dictionary when it is not cached locally.
type Downloader struct {
	URL    string
	Client *http.Client
	Log    logrus.FieldLogger
}

// Ensure downloads the dictionary to path unless a file is already there.
// The file is written to a temporary sibling and renamed, so a failed
// download never leaves a truncated dictionary behind.
func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	url := d.URL
	if url == "" {
		url = DefaultURL
	}
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	log.WithFields(logrus.Fields{"path": path, "url": url}).Info("dictionary not found, downloading")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "phrasebook-cli")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download dictionary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".cmudict-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	log.WithField("size", humanize.Bytes(uint64(n))).Info("dictionary downloaded")
	return nil
}
