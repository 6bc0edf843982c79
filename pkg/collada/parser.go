// Package collada maps COLLADA scene documents onto an immutable typed
// object model. Two front-ends feed the same constructors: a tree mapper over
// a fully read element tree and a streaming stack parser that builds nodes as
// their end tags arrive.
package collada

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/ndisidore/collada/pkg/markup"
)

// FrontEnd selects how markup is fed to the constructors.
type FrontEnd string

// Front-ends.
const (
	FrontEndTree   FrontEnd = "tree"
	FrontEndStream FrontEnd = "stream"
)

// Options tune a parse.
type Options struct {
	FrontEnd     FrontEnd
	Duplicates   DuplicatePolicy
	StrictCounts bool
}

// DefaultOptions streams, rejects duplicate ids and checks array counts.
func DefaultOptions() Options {
	return Options{FrontEnd: FrontEndStream, Duplicates: DuplicateReject, StrictCounts: true}
}

// Parser parses COLLADA documents. The zero value uses the tree front-end
// and the default logger.
type Parser struct {
	Logger  *slog.Logger
	Options Options
}

// ParseFile reads and parses the document at path.
func (p *Parser) ParseFile(path string) (d *Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	return p.Parse(f, path)
}

// ParseString parses a document held in memory.
func (p *Parser) ParseString(content string) (*Document, error) {
	return p.Parse(strings.NewReader(content), "<string>")
}

// Parse reads the whole of r. name labels errors and log records.
func (p *Parser) Parse(r io.Reader, name string) (*Document, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("document", name))

	digester := digest.Canonical.Digester()
	src := io.TeeReader(r, digester.Hash())
	b := newBuilder(p.Options, log)

	var (
		doc *Document
		err error
	)
	switch p.Options.FrontEnd {
	case FrontEndStream:
		doc, err = stream(src, b)
	case FrontEndTree, "":
		doc, err = tree(src, b)
	default:
		return nil, fmt.Errorf("%s: %w: front-end %q", name, ErrInvalidValue, p.Options.FrontEnd)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	doc.Digest = digester.Digest()

	log.Debug("parsed document",
		slog.String("front-end", string(p.Options.FrontEnd)),
		slog.String("digest", doc.Digest.String()),
		slog.Int("ids", doc.Registry.Len()),
	)
	return doc, nil
}

func tree(r io.Reader, b *builder) (*Document, error) {
	root, err := markup.ReadTree(r)
	if err != nil {
		if errors.Is(err, markup.ErrNoRoot) {
			return nil, ErrNoRoot
		}
		return nil, err
	}
	if root.Name == "COLLADA" {
		if err := checkPlacement(root, _kinds["COLLADA"]); err != nil {
			return nil, err
		}
	}
	return build(b, root, buildDocument)
}
