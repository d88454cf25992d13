package common

import (
	"context"
	"fmt"
	"sync"

	"github.com/whosonfirst/go-writer/v3"
)

var writers = make(map[string]writer.Writer)
var writers_mu = new(sync.RWMutex)

// NewWriter returns a whosonfirst/go-writer.Writer instance used to publish export
// manifests. Instances are cached in memory for repeat lookups so callers should
// not close them.
func NewWriter(ctx context.Context, uri string) (writer.Writer, error) {

	writers_mu.RLock()
	wr, ok := writers[uri]
	writers_mu.RUnlock()

	if ok {
		return wr, nil
	}

	writers_mu.Lock()
	defer writers_mu.Unlock()

	wr, ok = writers[uri]

	if ok {
		return wr, nil
	}

	wr, err := writer.NewWriter(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to create writer for '%s', %w", uri, err)
	}

	writers[uri] = wr
	return wr, nil
}
