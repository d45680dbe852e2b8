package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/fileutil"
)

// AssetStore manages the per-item artwork directories below the assets root
type AssetStore struct {
	log        zerolog.Logger
	root       string
	httpClient *http.Client
}

// NewAssetStore creates an asset store rooted at root
func NewAssetStore(log zerolog.Logger, root string) *AssetStore {
	return &AssetStore{
		log:  log.With().Str("module", "assets").Logger(),
		root: root,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Root is the assets root directory
func (s *AssetStore) Root() string {
	return s.root
}

// Dir is the asset directory of one item
func (s *AssetStore) Dir(itemID string) string {
	return filepath.Join(s.root, itemID)
}

// Path is the location of a named asset of one item
func (s *AssetStore) Path(itemID, name string) string {
	return filepath.Join(s.Dir(itemID), name)
}

// Import copies src into the item's directory as name and returns the new path
func (s *AssetStore) Import(itemID, name, src string) (string, error) {
	dst := s.Path(itemID, name)
	if err := fileutil.CopyFile(src, dst); err != nil {
		return "", errors.Wrapf(err, "import %s for %s", src, itemID)
	}
	s.log.Trace().Str("item", itemID).Str("src", src).Str("dst", dst).Msg("asset imported")
	return dst, nil
}

// WriteFile stores data as the named asset of one item
func (s *AssetStore) WriteFile(itemID, name string, data []byte) (string, error) {
	dst := s.Path(itemID, name)
	err := fileutil.WriteAtomic(dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return "", errors.Wrapf(err, "write %s for %s", name, itemID)
	}
	return dst, nil
}

// Download fetches url into dst. Existing files are left alone.
func (s *AssetStore) Download(ctx context.Context, url, dst string) error {
	if fileutil.Exists(dst) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create download request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s failed with status %d", url, resp.StatusCode)
	}

	if err := fileutil.WriteAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, resp.Body)
		return err
	}); err != nil {
		return errors.Wrapf(err, "failed to store %s", dst)
	}

	s.log.Debug().Str("url", url).Str("dst", dst).Msg("asset downloaded")
	return nil
}

// Remove deletes the item's asset directory
func (s *AssetStore) Remove(itemID string) error {
	if itemID == "" || filepath.Base(itemID) != itemID {
		return errors.Errorf("invalid item id %q", itemID)
	}
	return errors.Wrapf(os.RemoveAll(s.Dir(itemID)), "remove assets of %s", itemID)
}
