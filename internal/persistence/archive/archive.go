// Package archive keeps zstd-compressed backup copies of save files. The
// save stream itself stays uncompressed; only backups at rest are framed.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

type Meta struct {
	Source    string `json:"source"`
	Backup    string `json:"backup"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

// Backup copies savePath into dir/backups/<name>-<timestamp>.zst before the
// caller overwrites it. Returns the backup path.
func Backup(dir, savePath string) (string, error) {
	in, err := os.Open(savePath)
	if err != nil {
		return "", err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return "", err
	}

	backupDir := filepath.Join(dir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	stamp := time.Now().UTC().Format("20060102-150405")
	dst := filepath.Join(backupDir, fmt.Sprintf("%s-%s.zst", filepath.Base(savePath), stamp))

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer func() { _ = out.Close() }()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	meta := Meta{
		Source:    savePath,
		Backup:    filepath.Base(dst),
		Size:      st.Size(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(dst+".meta.json", b, 0o644)
	}
	return dst, nil
}

// Restore decompresses a backup back into a plain save file.
func Restore(backupPath, dstPath string) error {
	in, err := os.Open(backupPath)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, dec.IOReadCloser()); err != nil {
		return err
	}
	return out.Close()
}
