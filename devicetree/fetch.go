package devicetree

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	getter "github.com/hashicorp/go-getter"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/logger"
)

// Fetch resolves a database source to a local file. Local paths are
// returned as absolute paths; remote sources (http, git, s3, ...) are
// downloaded once into cacheDir.
func Fetch(ctx context.Context, src, cacheDir string) (string, error) {
	if src == "" {
		return "", nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return "", errors.Wrapf(err, "invalid database source %q", src)
	}
	u, err := url.Parse(detected)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse database source %q", src)
	}
	if u.Scheme == "file" {
		return u.Path, nil
	}

	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "codegen-cache")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create cache directory %s", cacheDir)
	}
	dst := filepath.Join(cacheDir, fmt.Sprintf("%016x-%s", xxhash.Sum64String(src), filepath.Base(u.Path)))
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  detected,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", errors.Wrapf(err, "failed to fetch database %s", src)
	}
	logger.Infow("database fetched", logger.FieldSource, src, logger.FieldPath, dst)
	return dst, nil
}
