// Package cache keeps landing pages and query translations on disk so repeated
// searches do not refetch or retranslate.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// dirPerm and filePerm pick permissions; StrictPerms restricts them to the owner.
func dirPerm(strict bool) os.FileMode {
	if strict {
		return 0o700
	}
	return 0o755
}

func filePerm(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

func ensureDir(dir string, strict bool) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(dir, dirPerm(strict)); err != nil {
		return err
	}
	// If directory already existed and StrictPerms is on, tighten perms
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

func digest(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

// writeAtomic writes data to path through a uniquely named temporary file and
// rename, so concurrent writers of the same key never share a temp file.
func writeAtomic(path string, data []byte, strict bool) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, filePerm(strict)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
