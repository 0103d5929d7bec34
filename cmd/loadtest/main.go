package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sentimentd/internal/loadtest"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type options struct {
	cfg       loadtest.Config
	asJSON    bool
	waitReady time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "loadtest",
		Short: "Fire parallel /predict requests at a sentimentd instance",
		Example: "  loadtest -n 200\n" +
			"  loadtest --url http://stage:8080/predict -n 50 --concurrency 10\n" +
			"  loadtest --text \"great\" --text \"awful\" --json",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, out, opts)
		},
	}
	f := root.Flags()
	f.StringVar(&opts.cfg.URL, "url", loadtest.DefaultURL, "Prediction endpoint")
	f.IntVarP(&opts.cfg.Requests, "requests", "n", loadtest.DefaultRequests, fmt.Sprintf("Number of requests (1..%d)", loadtest.MaxRequests))
	f.IntVar(&opts.cfg.Concurrency, "concurrency", 0, "Maximum in-flight requests (0 = all at once)")
	f.DurationVar(&opts.cfg.Timeout, "timeout", loadtest.DefaultTimeout, "Per-request timeout")
	f.StringArrayVar(&opts.cfg.Texts, "text", nil, "Sample text, repeatable (defaults to built-in sentences)")
	f.Uint64Var(&opts.cfg.Seed, "seed", 0, "Seed for text selection (0 = random)")
	f.BoolVar(&opts.asJSON, "json", false, "Emit one JSON object per result and a JSON summary")
	f.DurationVar(&opts.waitReady, "wait-ready", 0, "Wait up to this long for <url>/../readyz before firing")
	return root
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	if opts.waitReady > 0 {
		wctx, cancel := context.WithTimeout(ctx, opts.waitReady)
		err := loadtest.WaitReady(wctx, readyURL(opts.cfg.URL), 0)
		cancel()
		if err != nil {
			return err
		}
	}
	enc := json.NewEncoder(out)
	onResult := func(r loadtest.Result) {
		if opts.asJSON {
			_ = enc.Encode(r)
			return
		}
		fmt.Fprintln(out, formatResult(r))
	}
	sum, err := loadtest.Run(ctx, opts.cfg, onResult)
	if err != nil {
		return err
	}
	if opts.asJSON {
		return enc.Encode(sum)
	}
	printSummary(out, sum)
	return nil
}

// readyURL swaps the last path element of a /predict URL for /readyz.
func readyURL(predictURL string) string {
	if i := strings.LastIndex(predictURL, "/"); i > len("https://") {
		return predictURL[:i] + "/readyz"
	}
	return strings.TrimRight(predictURL, "/") + "/readyz"
}

func formatResult(r loadtest.Result) string {
	if r.OK() {
		return fmt.Sprintf("%d: %-8s %.4f  %7.1fms  %q", r.Seq, r.Response.Label, r.Response.Score, r.ElapsedMS, r.Text)
	}
	return fmt.Sprintf("%d: error: %s  %q", r.Seq, r.Error, r.Text)
}

func printSummary(out io.Writer, s loadtest.Summary) {
	fmt.Fprintf(out, "\n%d requests in %.1fms: %d ok, %d failed\n", s.Requests, s.WallMS, s.Succeeded, s.Failed)
	if s.Succeeded > 0 {
		fmt.Fprintf(out, "latency ms: min %.1f  mean %.1f  p50 %.1f  p95 %.1f  max %.1f  (server mean %.1f)\n",
			s.MinMS, s.MeanMS, s.P50MS, s.P95MS, s.MaxMS, s.ServerMeanMS)
	}
	for _, k := range sortedKeys(s.Labels) {
		fmt.Fprintf(out, "  %-10s %d\n", k, s.Labels[k])
	}
	for _, k := range sortedKeys(s.Errors) {
		fmt.Fprintf(out, "  error %q x%d\n", k, s.Errors[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
