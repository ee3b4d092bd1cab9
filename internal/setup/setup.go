// Package setup brings up the local container stack: it checks tooling,
// scaffolds the working directory, starts the services and waits for them.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Commander runs an external command in dir and returns its combined output.
type Commander interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecCommander runs commands with os/exec.
type ExecCommander struct{}

func (ExecCommander) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Prober checks that url answers with a 2xx status.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

type HTTPProber struct {
	Client *http.Client
}

func (p HTTPProber) Probe(ctx context.Context, url string) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return nil
}

const (
	DefaultFrontendURL = "http://localhost:3000"
	DefaultBackendURL  = "http://localhost:8080/health"
	DefaultAttempts    = 30
	DefaultInterval    = 2 * time.Second
)

// Dirs are created under the working directory.
var Dirs = []string{"uploads", "logs", "data"}

// DefaultRequiredKeys are the credential keys that must not keep a template
// placeholder.
var DefaultRequiredKeys = []string{"PRIMA_GEMINI_API_KEY", "PRIMA_GCP_PROJECT"}

var placeholderRe = regexp.MustCompile(`(?i)your_|changeme|<[^>]*>`)

type Options struct {
	Dir          string
	FrontendURL  string
	BackendURL   string
	Attempts     int
	Interval     time.Duration
	SkipBuild    bool
	RequiredKeys []string
}

func DefaultOptions() Options {
	return Options{
		Dir:          ".",
		FrontendURL:  DefaultFrontendURL,
		BackendURL:   DefaultBackendURL,
		Attempts:     DefaultAttempts,
		Interval:     DefaultInterval,
		RequiredKeys: DefaultRequiredKeys,
	}
}

// FatalError stops the setup. Everything else is reported as a warning.
type FatalError struct {
	Step string
	Err  error
}

func (e *FatalError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Result lists the soft failures of a completed run.
type Result struct {
	Warnings []string
}

// ExitCode is 0 for a nil error and 1 otherwise.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

type Runner struct {
	opts   Options
	cmd    Commander
	probe  Prober
	out    io.Writer
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

type Option func(*Runner)

func WithCommander(c Commander) Option { return func(r *Runner) { r.cmd = c } }

func WithProber(p Prober) Option { return func(r *Runner) { r.probe = p } }

func WithOutput(w io.Writer) Option { return func(r *Runner) { r.out = w } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

func New(opts Options, options ...Option) *Runner {
	def := DefaultOptions()
	if opts.Dir == "" {
		opts.Dir = def.Dir
	}
	if opts.Attempts <= 0 {
		opts.Attempts = def.Attempts
	}
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.RequiredKeys == nil {
		opts.RequiredKeys = def.RequiredKeys
	}

	r := &Runner{
		opts:   opts,
		cmd:    ExecCommander{},
		probe:  HTTPProber{},
		out:    os.Stdout,
		logger: slog.Default(),
		sleep:  sleepCtx,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes every step in order. A returned error is always a
// *FatalError.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tooling", r.checkTooling},
		{"directories", r.scaffold},
		{"env file", r.copyEnv},
		{"credentials", r.checkPlaceholders},
		{"services", r.startServices},
	}
	for _, s := range steps {
		r.logger.Info("setup step", "step", s.name)
		if err := s.fn(ctx); err != nil {
			r.logger.Error("setup step failed", "step", s.name, "error", err)
			r.printf("✗ %s: %v\n", s.name, err)
			return res, &FatalError{Step: s.name, Err: err}
		}
		r.printf("✓ %s\n", s.name)
	}

	for _, svc := range []struct{ name, url string }{
		{"frontend", r.opts.FrontendURL},
		{"backend", r.opts.BackendURL},
	} {
		if svc.url == "" {
			continue
		}
		if err := r.waitHealthy(ctx, svc.url); err != nil {
			r.warn(res, fmt.Sprintf("%s not healthy at %s: %v", svc.name, svc.url, err))
			continue
		}
		r.printf("✓ %s healthy\n", svc.name)
	}

	if err := r.pingCache(ctx); err != nil {
		r.warn(res, "redis not responding: "+err.Error())
	} else {
		r.printf("✓ redis responding\n")
	}

	r.printInstructions()
	return res, nil
}

func (r *Runner) checkTooling(ctx context.Context) error {
	if out, err := r.cmd.Run(ctx, r.opts.Dir, "docker", "--version"); err != nil {
		return fmt.Errorf("docker is not available: %w%s", err, detail(out))
	}
	if out, err := r.cmd.Run(ctx, r.opts.Dir, "docker", "compose", "version"); err != nil {
		return fmt.Errorf("docker compose is not available: %w%s", err, detail(out))
	}
	return nil
}

func (r *Runner) scaffold(context.Context) error {
	for _, d := range Dirs {
		if err := os.MkdirAll(filepath.Join(r.opts.Dir, d), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) copyEnv(context.Context) error {
	dst := filepath.Join(r.opts.Dir, ".env")
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	raw, err := os.ReadFile(filepath.Join(r.opts.Dir, ".env.example"))
	if err != nil {
		return fmt.Errorf("no .env and no template: %w", err)
	}
	if err := os.WriteFile(dst, raw, 0o600); err != nil {
		return err
	}
	r.printf("created .env from .env.example, review it before continuing\n")
	return nil
}

func (r *Runner) checkPlaceholders(context.Context) error {
	v := viper.New()
	v.SetConfigFile(filepath.Join(r.opts.Dir, ".env"))
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading .env: %w", err)
	}

	var unset []string
	for _, k := range r.opts.RequiredKeys {
		if placeholderRe.MatchString(v.GetString(strings.ToLower(k))) {
			unset = append(unset, k)
		}
	}
	if len(unset) > 0 {
		return fmt.Errorf("replace the placeholder values in .env: %s", strings.Join(unset, ", "))
	}
	return nil
}

func (r *Runner) startServices(ctx context.Context) error {
	if !r.opts.SkipBuild {
		if out, err := r.cmd.Run(ctx, r.opts.Dir, "docker", "compose", "build"); err != nil {
			return fmt.Errorf("docker compose build: %w%s", err, detail(out))
		}
	}
	if out, err := r.cmd.Run(ctx, r.opts.Dir, "docker", "compose", "up", "-d"); err != nil {
		return fmt.Errorf("docker compose up: %w%s", err, detail(out))
	}
	return nil
}

// waitHealthy probes url up to Attempts times, Interval apart.
func (r *Runner) waitHealthy(ctx context.Context, url string) error {
	var last error
	for i := 1; i <= r.opts.Attempts; i++ {
		if last = r.probe.Probe(ctx, url); last == nil {
			return nil
		}
		r.logger.Debug("health probe failed", "url", url, "attempt", i, "error", last)
		if i == r.opts.Attempts {
			break
		}
		if err := r.sleep(ctx, r.opts.Interval); err != nil {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", r.opts.Attempts, last)
}

func (r *Runner) pingCache(ctx context.Context) error {
	out, err := r.cmd.Run(ctx, r.opts.Dir, "docker", "compose", "exec", "-T", "redis", "redis-cli", "ping")
	if err != nil {
		return fmt.Errorf("%w%s", err, detail(out))
	}
	if !strings.Contains(string(out), "PONG") {
		return errors.New("unexpected reply " + strings.TrimSpace(string(out)))
	}
	return nil
}

func (r *Runner) warn(res *Result, msg string) {
	res.Warnings = append(res.Warnings, msg)
	r.logger.Warn("setup warning", "detail", msg)
	r.printf("! WARNING: %s\n", msg)
}

func (r *Runner) printInstructions() {
	r.printf("\nPrima Scholar is up.\n")
	if r.opts.FrontendURL != "" {
		r.printf("  Frontend:  %s\n", r.opts.FrontendURL)
	}
	if r.opts.BackendURL != "" {
		r.printf("  Backend:   %s\n", r.opts.BackendURL)
	}
	r.printf("  Dashboard: prima dashboard\n")
	r.printf("  Logs:      docker compose logs -f\n")
	r.printf("  Stop:      docker compose down\n")
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func detail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	return ": " + s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
