// Package doccache memoizes parsed COLLADA documents by content digest.
package doccache

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/ndisidore/collada/pkg/collada"
	"github.com/ndisidore/collada/pkg/slogctx"
)

// Cache parses each distinct file content once. Concurrent loads of the same
// content share a single parse. It is safe for concurrent use.
type Cache struct {
	parser *collada.Parser
	stats  *Collector

	group singleflight.Group
	mu    sync.RWMutex
	docs  map[digest.Digest]*collada.Document
}

// New returns a cache that parses with p. stats may be nil.
func New(p *collada.Parser, stats *Collector) *Cache {
	return &Cache{
		parser: p,
		stats:  stats,
		docs:   make(map[digest.Digest]*collada.Document),
	}
}

// Load returns the document stored in the file at path, parsing it only if
// no document with the same content digest has been loaded before. hit
// reports whether the parse was skipped.
func (c *Cache) Load(ctx context.Context, path string) (doc *collada.Document, hit bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("loading %s: %w", path, err)
	}
	start := time.Now()
	log := slogctx.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	dg := digest.FromBytes(data)
	defer func() {
		if c.stats != nil {
			c.stats.Observe(Lookup{Path: path, Digest: dg, Hit: hit, Duration: time.Since(start)})
		}
	}()

	if doc, ok := c.Get(dg); ok {
		log.LogAttrs(ctx, slog.LevelDebug, "document cache hit",
			slog.String("path", path), slog.String("digest", dg.String()))
		return doc, true, nil
	}

	v, err, _ := c.group.Do(dg.String(), func() (any, error) {
		p := *c.parser
		if l, ok := slogctx.Lookup(ctx); ok {
			p.Logger = l
		} else if p.Logger == nil {
			p.Logger = log
		}
		d, err := p.Parse(bytes.NewReader(data), path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[dg] = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*collada.Document), false, nil
}

// Get returns a previously parsed document by content digest.
func (c *Cache) Get(dg digest.Digest) (*collada.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[dg]
	return d, ok
}

// Len returns the number of distinct documents held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
