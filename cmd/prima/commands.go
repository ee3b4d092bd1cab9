package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/prima-scholar/internal/adapters/apiclient"
	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/identity"
	"github.com/PabloGalante/prima-scholar/internal/observability"
	"github.com/PabloGalante/prima-scholar/internal/setup"
	"github.com/PabloGalante/prima-scholar/internal/tui"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	api          string
	identityPath string
	logLevel     string
	timeout      time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "prima",
		Short:        "Prima Scholar command line",
		Long:         "Terminal dashboard, local setup and API helpers for Prima Scholar.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := observability.Setup(observability.Options{
				Level:  opts.logLevel,
				Text:   true,
				Output: cmd.ErrOrStderr(),
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&opts.api, "api", "", "API base URL (default from PRIMA_API_BASE/PRIMA_API_HOST)")
	root.PersistentFlags().StringVar(&opts.identityPath, "identity", "", "identity file (default in the user config dir)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP timeout")

	root.AddCommand(
		newDashboardCmd(opts),
		newSetupCmd(),
		newHealthCmd(opts),
		newDocumentsCmd(opts),
		newSummarizeCmd(opts),
		newWhoamiCmd(opts),
	)
	return root
}

func (o *rootOptions) client() (*apiclient.Client, error) {
	if o.api != "" {
		return apiclient.New(o.api, apiclient.WithTimeout(o.timeout)), nil
	}
	return apiclient.NewFromEnv(apiclient.WithTimeout(o.timeout))
}

func (o *rootOptions) identityStore() (*identity.FileStore, error) {
	path := o.identityPath
	if path == "" {
		p, err := identity.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return identity.NewFileStore(path), nil
}

func (o *rootOptions) sessionID(ctx context.Context) (string, error) {
	store, err := o.identityStore()
	if err != nil {
		return "", err
	}
	return identity.NewProvider(store).Resolve(ctx)
}

// studentOrSession returns id, or the session id when id is empty.
func (o *rootOptions) studentOrSession(ctx context.Context, id string) (domain.StudentID, error) {
	if id != "" {
		return domain.StudentID(id), nil
	}
	session, err := o.sessionID(ctx)
	if err != nil {
		return "", err
	}
	return domain.StudentID(session), nil
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var (
		panel    string
		startDir string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := opts.sessionID(cmd.Context())
			if err != nil {
				return err
			}
			return tui.Run(id, tui.Options{StartDir: startDir, Default: tui.PanelID(panel)})
		},
	}
	cmd.Flags().StringVar(&panel, "panel", string(tui.PanelDashboard), "panel shown first: dashboard, mentorship, distinctions, resources")
	cmd.Flags().StringVar(&startDir, "dir", "", "directory the file picker opens in")
	return cmd
}

func newSetupCmd() *cobra.Command {
	o := setup.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Check tooling, scaffold the workspace and start the container stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := setup.New(o,
				setup.WithOutput(cmd.OutOrStdout()),
				setup.WithLogger(observability.Logger()),
			)
			res, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			if n := len(res.Warnings); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\nfinished with %d warning(s)\n", n)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Dir, "dir", o.Dir, "project directory")
	f.StringVar(&o.FrontendURL, "frontend-url", o.FrontendURL, "front-end health URL (empty to skip)")
	f.StringVar(&o.BackendURL, "backend-url", o.BackendURL, "backend health URL (empty to skip)")
	f.IntVar(&o.Attempts, "attempts", o.Attempts, "health check attempts")
	f.DurationVar(&o.Interval, "interval", o.Interval, "delay between health checks")
	f.BoolVar(&o.SkipBuild, "skip-build", false, "skip docker compose build")
	return cmd
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API liveness endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %s\n", h.Service, h.Version, h.Status)
			fmt.Fprintf(out, "  database: %s\n", h.Database)
			fmt.Fprintf(out, "  cache:    %s\n", h.Cache)
			return nil
		},
	}
}

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List and upload study documents",
	}
	cmd.PersistentFlags().StringVar(&student, "student", "", "student id (default: this session)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			id, err := opts.studentOrSession(cmd.Context(), student)
			if err != nil {
				return err
			}
			docs, err := c.ListDocuments(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "no documents")
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(out, "%-40s %3d chunks\n", d.Title, d.Chunks)
			}
			return nil
		},
	}

	var title string
	upload := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a document for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			id, err := opts.studentOrSession(cmd.Context(), student)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			if title == "" {
				title = strings.TrimSuffix(name, filepath.Ext(name))
			}
			res, err := c.UploadDocument(cmd.Context(), apiclient.Upload{
				StudentID: id,
				Title:     title,
				Filename:  name,
				Content:   f,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %q: %d chunks\n", res.DocumentTitle, res.ChunksProcessed)
			return nil
		},
	}
	upload.Flags().StringVar(&title, "title", "", "document title (default: file name)")

	cmd.AddCommand(list, upload)
	return cmd
}

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	var (
		file      string
		sentences int
	)
	cmd := &cobra.Command{
		Use:   "summarize [TEXT]",
		Short: "Summarize text with the API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := summarizeInput(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			s, err := c.Summarize(cmd.Context(), text, sentences)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file, - for stdin")
	cmd.Flags().IntVar(&sentences, "sentences", 3, "maximum sentences in the summary")
	return cmd
}

func summarizeInput(stdin io.Reader, file string, args []string) (string, error) {
	var raw []byte
	var err error
	switch {
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		raw, err = io.ReadAll(stdin)
	case file != "":
		raw, err = os.ReadFile(file)
	default:
		return "", errors.New("pass the text as an argument or with --file")
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print this client's session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.identityStore()
			if err != nil {
				return err
			}
			id, err := identity.NewProvider(store).Resolve(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", id)
			observability.Logger().Debug("identity resolved", "path", store.Path())
			return nil
		},
	}
}
