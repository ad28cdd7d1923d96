package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Client wraps a Milvus connection holding entity-state vectors
type Client struct {
	conn client.Client
	addr string
}

// Config holds Milvus connection configuration
type Config struct {
	Address  string // Milvus server address (e.g., "localhost:19530")
	Username string // Optional, used together with Password
	Password string
}

// DefaultConfig returns a Config pointing at a local standalone Milvus
func DefaultConfig() Config {
	return Config{Address: "localhost:19530"}
}

// NewClient dials Milvus. Credentials are sent only when both are set.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	ccfg := client.Config{Address: cfg.Address}
	if cfg.Username != "" && cfg.Password != "" {
		ccfg.Username = cfg.Username
		ccfg.Password = cfg.Password
	}

	conn, err := client.NewClient(ctx, ccfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}

	return &Client{conn: conn, addr: cfg.Address}, nil
}

// Addr returns the server address
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the Milvus connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// HasCollection checks if a collection exists
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	return c.conn.HasCollection(ctx, name)
}

// CreateIndex creates an IVF_FLAT index on the embedding field.
// Feature rows live on different scales (log index, outcomes, volatilities),
// so vectors are compared by L2 distance.
func (c *Client) CreateIndex(ctx context.Context, collectionName, fieldName string, nlist int) error {
	idx, err := entity.NewIndexIvfFlat(entity.L2, nlist)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return c.conn.CreateIndex(ctx, collectionName, fieldName, idx, false)
}

// LoadCollection loads a collection into memory
func (c *Client) LoadCollection(ctx context.Context, collectionName string) error {
	return c.conn.LoadCollection(ctx, collectionName, false)
}

// DropCollection drops a collection
func (c *Client) DropCollection(ctx context.Context, collectionName string) error {
	return c.conn.DropCollection(ctx, collectionName)
}

// Finalize flushes inserted states, builds the index and loads the
// collection so it can be searched
func (c *Client) Finalize(ctx context.Context, collectionName string) error {
	if err := c.Flush(ctx, collectionName); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := c.CreateIndex(ctx, collectionName, "embedding", DefaultNList); err != nil {
		return fmt.Errorf("failed to index: %w", err)
	}
	if err := c.LoadCollection(ctx, collectionName); err != nil {
		return fmt.Errorf("failed to load: %w", err)
	}
	return nil
}
