// Package config loads collada CLI settings from a KDL file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/ndisidore/collada/pkg/collada"
)

// DefaultPath is the file looked up in the working directory when no path is given.
const DefaultPath = "collada.kdl"

// Sentinel errors for configuration failures.
var (
	ErrNoConfig       = errors.New("no config file")
	ErrUnknownNode    = errors.New("unknown node")
	ErrDuplicateNode  = errors.New("duplicate node")
	ErrMissingValue   = errors.New("missing value")
	ErrTypeMismatch   = errors.New("value type mismatch")
	ErrInvalidSetting = errors.New("invalid setting")
)

// Allowed values for the enumerated settings.
var (
	FrontEnds     = []string{string(collada.FrontEndTree), string(collada.FrontEndStream)}
	DuplicateIDs  = []string{"reject", "overwrite"}
	Formats       = []string{"auto", "pretty", "json", "text"}
	ProgressModes = []string{"auto", "tui", "plain", "quiet"}
)

// Output controls how the CLI reports.
type Output struct {
	Format      string
	LogLevel    slog.Level
	Progress    string
	Parallelism int
}

// Config is the merged CLI configuration.
type Config struct {
	Parser collada.Options
	Output Output
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Parser: collada.DefaultOptions(),
		Output: Output{
			Format:      "auto",
			LogLevel:    slog.LevelInfo,
			Progress:    "auto",
			Parallelism: 4,
		},
	}
}

// Load reads the config file at path. A missing file returns Default()
// together with an error wrapping ErrNoConfig.
func Load(path string) (c Config, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), fmt.Errorf("%s: %w", path, ErrNoConfig)
	}
	if err != nil {
		return Config{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	return Parse(f, path)
}

// Parse reads KDL settings from r on top of Default().
func Parse(r io.Reader, filename string) (Config, error) {
	doc, err := kdl.Parse(r)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", filename, err)
	}

	c := Default()
	seen := make(map[string]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		name := node.Name.ValueString()
		if seen[name] {
			return Config{}, fmt.Errorf("%s: %q: %w", filename, name, ErrDuplicateNode)
		}
		seen[name] = true

		switch name {
		case "parser":
			err = eachChild(node, applyParser(&c.Parser))
		case "output":
			err = eachChild(node, applyOutput(&c.Output))
		default:
			err = fmt.Errorf("%q: %w", name, ErrUnknownNode)
		}
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return c, nil
}

// ParseString parses KDL settings from a string.
func ParseString(content string) (Config, error) {
	return Parse(strings.NewReader(content), "<string>")
}

// FrontEnd validates a front-end name.
func FrontEnd(v string) (collada.FrontEnd, error) {
	if err := oneOf("front-end", v, FrontEnds); err != nil {
		return "", err
	}
	return collada.FrontEnd(v), nil
}

// DuplicatePolicy validates a duplicate-ids setting.
func DuplicatePolicy(v string) (collada.DuplicatePolicy, error) {
	if err := oneOf("duplicate-ids", v, DuplicateIDs); err != nil {
		return 0, err
	}
	if v == "overwrite" {
		return collada.DuplicateOverwrite, nil
	}
	return collada.DuplicateReject, nil
}

// LogLevel parses a slog level name such as "debug" or "warn".
func LogLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("log-level %q: %w: %w", v, ErrInvalidSetting, err)
	}
	return level, nil
}

// Check validates the enumerated output settings.
func (o Output) Check() error {
	if err := oneOf("format", o.Format, Formats); err != nil {
		return err
	}
	if err := oneOf("progress", o.Progress, ProgressModes); err != nil {
		return err
	}
	if o.Parallelism < 0 {
		return fmt.Errorf("parallelism %d: must be >= 0: %w", o.Parallelism, ErrInvalidSetting)
	}
	return nil
}

func applyParser(o *collada.Options) func(*document.Node) error {
	return func(node *document.Node) error {
		var err error
		switch key := node.Name.ValueString(); key {
		case "front-end":
			var v string
			if v, err = stringArg(node); err == nil {
				o.FrontEnd, err = FrontEnd(v)
			}
		case "duplicate-ids":
			var v string
			if v, err = stringArg(node); err == nil {
				o.Duplicates, err = DuplicatePolicy(v)
			}
		case "strict-counts":
			o.StrictCounts, err = boolArg(node)
		default:
			return fmt.Errorf("parser: %q: %w", key, ErrUnknownNode)
		}
		if err != nil {
			return fmt.Errorf("parser: %w", err)
		}
		return nil
	}
}

func applyOutput(o *Output) func(*document.Node) error {
	return func(node *document.Node) error {
		var err error
		switch key := node.Name.ValueString(); key {
		case "format":
			if o.Format, err = stringArg(node); err == nil {
				err = oneOf(key, o.Format, Formats)
			}
		case "progress":
			if o.Progress, err = stringArg(node); err == nil {
				err = oneOf(key, o.Progress, ProgressModes)
			}
		case "log-level":
			var v string
			if v, err = stringArg(node); err == nil {
				o.LogLevel, err = LogLevel(v)
			}
		case "parallelism":
			if o.Parallelism, err = intArg(node); err == nil && o.Parallelism < 0 {
				err = fmt.Errorf("parallelism %d: must be >= 0: %w", o.Parallelism, ErrInvalidSetting)
			}
		default:
			return fmt.Errorf("output: %q: %w", key, ErrUnknownNode)
		}
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		return nil
	}
}

// eachChild applies fn to every child of a section node, rejecting
// arguments and properties on the section itself and repeated settings.
func eachChild(node *document.Node, fn func(*document.Node) error) error {
	section := node.Name.ValueString()
	if len(node.Arguments) > 0 || len(node.Properties) > 0 {
		return fmt.Errorf("%s: takes no arguments or properties: %w", section, ErrTypeMismatch)
	}
	seen := make(map[string]bool, len(node.Children))
	for _, child := range node.Children {
		name := child.Name.ValueString()
		if seen[name] {
			return fmt.Errorf("%s: %q: %w", section, name, ErrDuplicateNode)
		}
		seen[name] = true
		if len(child.Properties) > 0 {
			return fmt.Errorf("%s: %q takes no properties: %w", section, name, ErrUnknownNode)
		}
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}

// value returns the single argument of a setting node.
func value(node *document.Node) (any, error) {
	name := node.Name.ValueString()
	switch len(node.Arguments) {
	case 0:
		return nil, fmt.Errorf("%q: %w", name, ErrMissingValue)
	case 1:
		return node.Arguments[0].ResolvedValue(), nil
	default:
		return nil, fmt.Errorf("%q: expected one value, got %d: %w", name, len(node.Arguments), ErrTypeMismatch)
	}
}

func stringArg(node *document.Node) (string, error) {
	v, err := value(node)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q: not a string: %w", node.Name.ValueString(), ErrTypeMismatch)
	}
	return s, nil
}

func boolArg(node *document.Node) (bool, error) {
	v, err := value(node)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%q: not a boolean: %w", node.Name.ValueString(), ErrTypeMismatch)
	}
	return b, nil
}

func intArg(node *document.Node) (int, error) {
	v, err := value(node)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%q: not an integer: %w", node.Name.ValueString(), ErrTypeMismatch)
}

func oneOf(field, v string, allowed []string) error {
	if !slices.Contains(allowed, v) {
		return fmt.Errorf("%s %q (valid: %s): %w", field, v, strings.Join(allowed, ", "), ErrInvalidSetting)
	}
	return nil
}
