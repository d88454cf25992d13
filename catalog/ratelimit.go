package catalog

import (
	"context"
	"io"

	"github.com/sfomuseum/go-geetools/asset"
	"go.uber.org/ratelimit"
	"gocloud.dev/blob"
)

// RateLimitedCatalog wraps a Catalog so that no more than a fixed number of requests per second are sent to it.
type RateLimitedCatalog struct {
	catalog Catalog
	limiter ratelimit.Limiter
}

// NewRateLimitedCatalog returns a RateLimitedCatalog allowing rate requests per second to c.
func NewRateLimitedCatalog(c Catalog, rate int) *RateLimitedCatalog {

	if rate < 1 {
		rate = 1
	}

	return &RateLimitedCatalog{
		catalog: c,
		limiter: ratelimit.New(rate),
	}
}

func (c *RateLimitedCatalog) Info(ctx context.Context, id string) (*asset.Asset, error) {
	c.limiter.Take()
	return c.catalog.Info(ctx, id)
}

func (c *RateLimitedCatalog) List(ctx context.Context, id string) ([]*asset.Asset, error) {
	c.limiter.Take()
	return c.catalog.List(ctx, id)
}

func (c *RateLimitedCatalog) Delete(ctx context.Context, id string) error {
	c.limiter.Take()
	return c.catalog.Delete(ctx, id)
}

func (c *RateLimitedCatalog) Create(ctx context.Context, a *asset.Asset) error {
	c.limiter.Take()
	return c.catalog.Create(ctx, a)
}

func (c *RateLimitedCatalog) Close() error {
	return c.catalog.Close()
}

// RateLimitedDataCatalog wraps a DataCatalog so that no more than a fixed number of requests per second,
// including requests for asset payloads, are sent to it.
type RateLimitedDataCatalog struct {
	*RateLimitedCatalog
	data DataCatalog
}

// NewRateLimitedDataCatalog returns a RateLimitedDataCatalog allowing rate requests per second to c.
func NewRateLimitedDataCatalog(c DataCatalog, rate int) *RateLimitedDataCatalog {

	return &RateLimitedDataCatalog{
		RateLimitedCatalog: NewRateLimitedCatalog(c, rate),
		data:               c,
	}
}

func (c *RateLimitedDataCatalog) ListData(ctx context.Context, id string) ([]string, error) {
	c.limiter.Take()
	return c.data.ListData(ctx, id)
}

func (c *RateLimitedDataCatalog) NewDataReader(ctx context.Context, id string, name string) (io.ReadCloser, error) {
	c.limiter.Take()
	return c.data.NewDataReader(ctx, id, name)
}

func (c *RateLimitedDataCatalog) NewDataWriter(ctx context.Context, id string, name string, opts *blob.WriterOptions) (io.WriteCloser, error) {
	c.limiter.Take()
	return c.data.NewDataWriter(ctx, id, name, opts)
}
