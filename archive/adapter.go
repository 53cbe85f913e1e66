package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Adapter wraps one archive format's external tool behind a uniform
// create/extract capability. The returned durations cover the tool
// invocation only, not size measurement or verification. Adapters hold no
// state between calls; all state lives on disk.
type Adapter interface {
	Name() string

	// Ext is the archive filename extension, including the leading dot.
	Ext() string

	// Create archives srcDir into archivePath.
	Create(ctx context.Context, srcDir, archivePath string) (time.Duration, error)

	// Extract unpacks archivePath into destDir, creating destDir first.
	Extract(ctx context.Context, archivePath, destDir string) (time.Duration, error)
}

// Options carries per-adapter settings a Factory may use.
type Options struct {
	// BindleBin is the path to the bindle CLI binary. Required by the
	// bindle formats, ignored by the rest.
	BindleBin string
}

// Factory builds an Adapter from Options.
type Factory func(Options) Adapter

// ErrUnknownFormat is reported for format names with no registered
// factory. Unknown names are a setup fault, not a benchmark failure.
var ErrUnknownFormat = errors.New("unknown archive format")

// Registry maps format names to adapter factories, so new formats are
// added by registration rather than by touching the runner.
type Registry struct {
	factories map[string]Factory
	names     []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given format name. Re-registering a
// name replaces the factory but keeps its position.
func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; !ok {
		r.names = append(r.names, name)
	}

	r.factories[name] = f
}

// Names returns the registered format names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)

	return out
}

// New builds the adapter registered under name.
func (r *Registry) New(name string, opts Options) (Adapter, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "%q (known formats: %s)",
			name, strings.Join(r.names, ", "))
	}

	return f(opts), nil
}

// DefaultRegistry returns a Registry pre-populated with the benchmarked
// formats: the bindle CLI with and without compression, plus the
// general-purpose baselines.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("bindle", func(opts Options) Adapter {
		return &bindleAdapter{name: "bindle", bin: opts.BindleBin}
	})
	r.Register("bindle-zstd", func(opts Options) Adapter {
		return &bindleAdapter{name: "bindle-zstd", bin: opts.BindleBin, compress: true}
	})
	r.Register("tar", func(Options) Adapter {
		return &tarAdapter{}
	})
	r.Register("tar.gz", func(Options) Adapter {
		return &tarAdapter{gzip: true}
	})
	r.Register("zip", func(Options) Adapter {
		return &zipAdapter{}
	})

	return r
}

// bindleAdapter shells out to the bindle CLI's pack/unpack commands.
type bindleAdapter struct {
	name     string
	bin      string
	compress bool
}

func (a *bindleAdapter) Name() string { return a.name }
func (a *bindleAdapter) Ext() string  { return ".bndl" }

func (a *bindleAdapter) Create(ctx context.Context, srcDir, archivePath string) (time.Duration, error) {
	args := []string{"pack", archivePath, srcDir}
	if a.compress {
		args = append(args, "--compress")
	}

	d, _, err := run(ctx, "", a.bin, args...)

	return d, err
}

func (a *bindleAdapter) Extract(ctx context.Context, archivePath, destDir string) (time.Duration, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "create extract dir %s", destDir)
	}

	d, _, err := run(ctx, "", a.bin, "unpack", archivePath, destDir)

	return d, err
}

// tarAdapter drives the system tar, optionally through gzip.
type tarAdapter struct {
	gzip bool
}

func (a *tarAdapter) Name() string {
	if a.gzip {
		return "tar.gz"
	}

	return "tar"
}

func (a *tarAdapter) Ext() string {
	if a.gzip {
		return ".tar.gz"
	}

	return ".tar"
}

func (a *tarAdapter) Create(ctx context.Context, srcDir, archivePath string) (time.Duration, error) {
	flags := "-cf"
	if a.gzip {
		flags = "-czf"
	}

	d, _, err := run(ctx, "", "tar", flags, archivePath, "-C", srcDir, ".")

	return d, err
}

func (a *tarAdapter) Extract(ctx context.Context, archivePath, destDir string) (time.Duration, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "create extract dir %s", destDir)
	}

	flags := "-xf"
	if a.gzip {
		flags = "-xzf"
	}

	d, _, err := run(ctx, "", "tar", flags, archivePath, "-C", destDir)

	return d, err
}

// zipAdapter drives the system zip/unzip pair. zip resolves relative
// entry names from the working directory, so create runs inside srcDir
// with an absolute archive path.
type zipAdapter struct{}

func (zipAdapter) Name() string { return "zip" }
func (zipAdapter) Ext() string  { return ".zip" }

func (zipAdapter) Create(ctx context.Context, srcDir, archivePath string) (time.Duration, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return 0, errors.Wrapf(err, "resolve archive path %s", archivePath)
	}

	d, _, err := run(ctx, srcDir, "zip", "-r", "-q", abs, ".")

	return d, err
}

func (zipAdapter) Extract(ctx context.Context, archivePath, destDir string) (time.Duration, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "create extract dir %s", destDir)
	}

	d, _, err := run(ctx, "", "unzip", "-q", archivePath, "-d", destDir)

	return d, err
}
