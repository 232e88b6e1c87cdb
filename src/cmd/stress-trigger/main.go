package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"winshifts/src/singleinstance"
)

type stressOptions struct {
	n        int
	deadline time.Duration
}

type stressResult struct {
	ok, busy, missing, failed int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-trigger",
		Short:         "Stress test capture delegation to a running instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.n <= 0 {
				return fmt.Errorf("--n must be positive, got %d", opts.n)
			}
			res, elapsed := runClients(opts.n, opts.deadline, func() singleinstance.Client { return singleinstance.NewClient() })
			fmt.Fprintf(os.Stdout, "launched=%d ok=%d busy=%d missing=%d err=%d elapsed=%s\n",
				opts.n, res.ok, res.busy, res.missing, res.failed, elapsed)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runClients(n int, deadline time.Duration, newClient func() singleinstance.Client) (stressResult, time.Duration) {
	var wg sync.WaitGroup
	var res stressResult

	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), deadline)
			defer cancel()
			delegated, err := newClient().TryTrigger(ctx)
			switch {
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				atomic.AddInt32(&res.busy, 1)
			case err != nil:
				atomic.AddInt32(&res.failed, 1)
			case delegated:
				atomic.AddInt32(&res.ok, 1)
			default:
				atomic.AddInt32(&res.missing, 1)
			}
		}()
	}
	wg.Wait()
	return res, time.Since(start)
}
