package common

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"

	"gocloud.dev/blob"
)

// Fingerprint returns the hex-encoded SHA-1 hash of the contents of r.
func Fingerprint(r io.Reader) (string, error) {

	// h := sha256.New()
	h := sha1.New()

	_, err := io.Copy(h, r)

	if err != nil {
		return "", err
	}

	hash := h.Sum(nil)
	str := hex.EncodeToString(hash[:])

	return str, nil
}

// Generate a SHA-1 hash of a file stored in a blob.Bucket instance.
func FingerprintFile(ctx context.Context, bucket *blob.Bucket, path string) (string, error) {

	fh, err := bucket.NewReader(ctx, path, nil)

	if err != nil {
		return "", fmt.Errorf("Failed to open %s for reading, %w", path, err)
	}

	defer fh.Close()

	return Fingerprint(fh)
}
