// Package publish uploads built artifacts to asset storage and finalizes
// catalog records.
package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/DevelopmentCats/AppBinHub/internal/catalog"
	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// AssetStore persists artifacts under deterministic keys and hands back
// stable download URLs. Re-putting the same key overwrites, which is what
// makes re-publishing idempotent.
type AssetStore interface {
	Put(ctx context.Context, appID, key, srcPath string) (url string, err error)
}

// AssetKey derives the deterministic storage key for one artifact.
func AssetKey(app *catalog.Application, format catalog.Format) string {
	return fmt.Sprintf("%s_%s_%s.%s", app.ID, sanitizeKeyPart(app.Version), app.Architecture, format.Extension())
}

func sanitizeKeyPart(part string) string {
	part = strings.TrimSpace(part)
	part = strings.ReplaceAll(part, "/", "-")
	part = strings.ReplaceAll(part, " ", "-")
	return part
}

// LocalStore stores assets on the filesystem under per-application
// directories, addressed through a base URL the website prepends to links.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a filesystem asset store rooted at dir.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put implements AssetStore. An existing file under the same key is
// replaced.
func (s *LocalStore) Put(ctx context.Context, appID, key, srcPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(s.dir, appID, key)
	if err := utils.CopyFile(srcPath, dest); err != nil {
		return "", fmt.Errorf("store asset %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, appID, key), nil
}
