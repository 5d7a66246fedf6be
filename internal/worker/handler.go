package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/knowledge-tools/filequeue/internal/dto"
)

// FingerprintFile is the default ProcessFunc: it reads the job's file and
// returns its SHA-256 fingerprint for change detection. A missing or
// unreadable file is a processing failure and goes through the normal
// retry path.
func FingerprintFile(ctx context.Context, job *dto.JobResponseDTO) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(job.FilePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", job.FilePath, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", job.FilePath, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
