package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"winshifts/src/clipboard"
	"winshifts/src/config"
	"winshifts/src/eventloop"
	"winshifts/src/gui"
	"winshifts/src/hotkey"
	"winshifts/src/logutil"
	"winshifts/src/overlay"
	"winshifts/src/runtimeinit"
	"winshifts/src/screenshot"
	"winshifts/src/singleinstance"
	"winshifts/src/tray"
)

const (
	appTitle          = "WinShiftS"
	delegationTimeout = 2 * time.Second
)

type mainOptions struct {
	capture bool
	verbose bool
	envPath string
}

type triggerClient interface {
	TryTrigger(ctx context.Context) (bool, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"winshifts"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "winshifts",
		Short:         "Copy a dragged screen region to the clipboard",
		Long:          "Press " + hotkey.Default + ", drag over the frozen screen and the selection is copied to the clipboard as an image.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.capture, "capture", false, "Capture once: ask the running instance, or run a single session and exit")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to .env file (overrides "+config.EnvPathEnvVar+")")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-capture) to the GNU form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"capture", "verbose", "env"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

func runWithOptions(opts mainOptions) error {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()
	logutil.SetVerbose(opts.verbose)

	loadOptions := config.LoadOptions{EnvPathOverride: opts.envPath}
	// Load .env early so SINGLEINSTANCE_PORT_* are applied before delegation scan
	if _, err := config.LoadWithOptions(loadOptions); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	client := singleinstance.NewClient()
	if opts.capture {
		return delegateOrRun(client, func() error { return runStandalone(loadOptions) })
	}
	return delegateOrRun(client, func() error { return runResident(loadOptions) })
}

// delegateOrRun asks a running instance to capture. fallback runs when none
// answers, or when delegation itself failed.
func delegateOrRun(client triggerClient, fallback func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), delegationTimeout)
	defer cancel()

	delegated, err := client.TryTrigger(ctx)
	if err != nil {
		log.Printf("Delegation error: %v; falling back to standalone", err)
		return fallback()
	}
	if delegated {
		log.Printf("Delegated capture to resident")
		return nil
	}
	log.Printf("No resident detected")
	return fallback()
}

// runStandalone performs one capture session without a tray icon or hotkey.
func runStandalone(loadOptions config.LoadOptions) error {
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  loadOptions,
		SetupLogging: logutil.Setup,
	})
	if err != nil {
		return err
	}
	defer logutil.Close()

	surface, err := gui.NewSurface()
	if err != nil {
		return fmt.Errorf("failed to create overlay window: %w", err)
	}

	screen := screenshot.NewScreen()
	loop := eventloop.New(eventloop.Options{
		Capturer:  screen,
		Surface:   surface,
		Publisher: clipboard.NewPublisher(),
		Style:     styleFromConfig(cfg),
		OneShot:   true,
	})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Running single capture session")
	loop.Trigger()
	err = loop.Run(ctx)
	if errors.Is(err, screenshot.ErrNoDisplays) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runResident starts the tray icon, the hotkey and the single-instance
// server, then runs capture sessions until Exit or a signal.
func runResident(loadOptions config.LoadOptions) error {
	// Lock main goroutine to its own OS thread so it never shares the
	// overlay window thread's message queue
	runtime.LockOSThread()

	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  loadOptions,
		SetupLogging: logutil.Setup,
	})
	if err != nil {
		return err
	}
	defer logutil.Close()

	logMonitorConfiguration()
	screen := screenshot.NewScreen()
	if desktop, err := screen.VirtualDesktop(); err == nil {
		log.Printf("%s initialized, virtual desktop %v", appTitle, desktop)
	} else {
		log.Printf("%s initialized: %v", appTitle, err)
	}
	log.Printf("Hotkey: %s", hotkey.Default)
	portStart, portEnd := singleinstance.GetPortRangeForDebug()
	log.Printf("Single-instance port range: %d-%d", portStart, portEnd)

	surface, err := gui.NewSurface()
	if err != nil {
		return fmt.Errorf("failed to create overlay window: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tooltip := fmt.Sprintf("%s - Press %s to capture", appTitle, hotkey.Default)
	tray.SetAboutHotkey(hotkey.Default)

	var loop *eventloop.Loop
	trayIcon, err := tray.New(tray.Config{
		Title:     appTitle,
		Tooltip:   tooltip,
		OnCapture: func() { loop.Trigger() },
		OnExit:    cancel,
	})
	if err != nil {
		_ = surface.Close()
		return err
	}

	loop = eventloop.New(eventloop.Options{
		Capturer:     screen,
		Surface:      surface,
		Publisher:    clipboard.NewPublisher(),
		Style:        styleFromConfig(cfg),
		Notifier:     trayIcon,
		Server:       singleinstance.NewServer(),
		NotifyOnCopy: cfg.NotifyOnCopy,
	})

	go trayIcon.Run()
	defer trayIcon.Destroy()

	if err := loop.StartHotkey(hotkey.Default); err != nil {
		log.Printf("Hotkey unavailable: %v", err)
		trayIcon.Alert("Hotkey unavailable", fmt.Sprintf("%v\n\nUse the tray menu to capture.", err))
	}
	defer hotkey.Stop()

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.CaptureOnStart {
		loop.Trigger()
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event loop stopped: %w", err)
	}
	log.Printf("Shutdown complete")
	return nil
}

func styleFromConfig(cfg *config.Config) overlay.Style {
	return overlay.Style{
		Dim:       color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: cfg.DimOpacity},
		Highlight: cfg.HighlightColor,
	}
}
