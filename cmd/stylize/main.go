package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/download"
	"style-transform-server/modules/imageprep"
	"style-transform-server/modules/studio"
	"style-transform-server/modules/style"
)

const defaultServer = "http://localhost:8080"

type options struct {
	server  string
	style   string
	outDir  string
	timeout time.Duration
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "stylize IMAGE",
		Short: "Restyle a photo with one of the built-in art styles",
		Long: "Uploads IMAGE (JPG, PNG or WEBP, up to 10MB) to a style transform server,\n" +
			"applies the chosen art style and saves the result as a JPG.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logger.SetLevel("debug")
			} else {
				logger.SetLevel("warn")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStylize(cmd, opts, args[0])
		},
	}

	serverDefault := os.Getenv("STYLIZE_SERVER")
	if serverDefault == "" {
		serverDefault = defaultServer
	}

	cmd.Flags().StringVarP(&opts.style, "style", "s", "", "style id or slug (see `stylize styles`)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "directory to write the JPG into")
	cmd.Flags().StringVar(&opts.server, "server", serverDefault, "transform server base URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", studio.DefaultClientTimeout, "request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show debug logs")
	cmd.MarkFlagRequired("style")

	cmd.AddCommand(newStylesCmd())
	return cmd
}

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the available art styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tNAME")
			for _, opt := range style.List() {
				fmt.Fprintf(w, "%d\t%s\t%s %s\n", opt.ID, opt.Slug, opt.Icon, opt.Name)
			}
			return w.Flush()
		},
	}
}

// resolveStyle - 숫자면 ID, 아니면 슬러그
func resolveStyle(value string) (style.Option, error) {
	if id, err := strconv.Atoi(value); err == nil {
		return style.Lookup(id)
	}
	return style.LookupSlug(value)
}

func runStylize(cmd *cobra.Command, opts *options, path string) error {
	chosen, err := resolveStyle(opts.style)
	if err != nil {
		return fmt.Errorf("unknown style %q: %w", opts.style, err)
	}

	src, err := imageprep.Open(path)
	if err != nil {
		return err
	}

	transformer := studio.NewHTTPTransformer(opts.server, &http.Client{Timeout: opts.timeout})
	controller := studio.NewController(transformer)

	if _, err := controller.Upload(cmd.Context(), src); err != nil {
		return err
	}
	if err := controller.SelectStyle(chosen.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s Applying %s to %s...\n", chosen.Icon, chosen.Slug, src.Name)
	if _, err := controller.Transform(cmd.Context()); err != nil {
		if msg := controller.Snapshot().Error; msg != "" {
			return fmt.Errorf("transform failed: %s", msg)
		}
		return err
	}

	file, err := controller.Download()
	if err != nil {
		return err
	}
	saved, err := download.Save(opts.outDir, file)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), saved)
	return nil
}
