package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-trscan/pkg/config"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/renderers/tui"
	"github.com/goliatone/go-trscan/pkg/scanner"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

var (
	configPath string
	panels     []string
	output     string
	root       string
	run        bool
	verbose    bool
)

var defaultPanels = []string{
	forms.TrscanOptionsID,
	forms.AnalysisContentID,
	forms.LanguageContentID,
	forms.ExclusionContentID,
}

var rootCmd = &cobra.Command{
	Use:   "trscan-cli",
	Short: "Fill the static analysis option panels on a terminal",
	Long: `trscan-cli walks the scan option panels, prints the resulting layout
descriptor and can launch the analyser locally with the collected settings.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCLI(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (scanner section)")
	rootCmd.Flags().StringSliceVarP(&panels, "panels", "p", defaultPanels, "option panels to fill, in order")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "write the layout to a file instead of stdout")
	rootCmd.Flags().StringVar(&root, "root", "", "directory path pickers browse (defaults to forms.root)")
	rootCmd.Flags().BoolVar(&run, "run", false, "run the static analysis with the collected settings")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Development: true})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx = logging.WithContext(ctx, logger)

	if root == "" {
		root = cfg.Forms.Root
	}
	prompter := tui.New(tui.WithDecorators(forms.RootDecorator(root)))

	entries := make([]layout.Entry, 0, len(panels))
	for i, id := range panels {
		id = strings.TrimSpace(id)
		form, ok := forms.Lookup(id)
		if !ok || !layout.Kind(id).Known() {
			return fmt.Errorf("unknown panel %q", id)
		}
		answers, _, err := prompter.Fill(ctx, form, nil)
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				return errors.New("aborted")
			}
			return err
		}
		entries = append(entries, layout.Entry{Index: i, Kind: layout.Kind(id), Params: params(answers)})
	}

	data, err := layout.Marshal(entries)
	if err != nil {
		return err
	}
	if output != "" {
		if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		logger.Info("layout written", zap.String("file", output))
	} else {
		fmt.Fprintln(stdout, string(data))
	}

	if !run {
		return nil
	}
	return runScan(ctx, stdout, cfg, data)
}

func runScan(ctx context.Context, stdout io.Writer, cfg config.Config, data []byte) error {
	selection, err := widgets.NewFactory(nil, widgets.WithPathRoot(root)).Build(ctx, widgets.BuildRequest{Layout: data})
	if err != nil {
		return err
	}
	settings, err := selection.ScanSettings()
	if err != nil {
		return err
	}
	runner := scanner.NewRunner(
		scanner.WithScript(cfg.Scanner.Script),
		scanner.WithBinary(cfg.Scanner.Binary),
		scanner.WithMarker(cfg.Scanner.Marker),
		scanner.WithWorkDir(cfg.Scanner.WorkDir),
		scanner.WithTimeout(cfg.Scanner.Timeout),
		scanner.WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
	res, err := runner.Run(ctx, scanner.Request{Settings: settings})
	for _, line := range res.Output {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, res.Message())
	return err
}

// params keeps every answer, sorted by field name.
func params(values url.Values) layout.Params {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(layout.Params, 0, len(names))
	for _, name := range names {
		for _, value := range values[name] {
			out = append(out, layout.Param{Name: name, Value: value})
		}
	}
	return out
}
