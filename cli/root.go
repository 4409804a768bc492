package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avnlearn/manim-recorder/audio"
	"github.com/avnlearn/manim-recorder/config"
	"github.com/avnlearn/manim-recorder/doctor"
	"github.com/avnlearn/manim-recorder/gui"
	"github.com/avnlearn/manim-recorder/log"
	"github.com/avnlearn/manim-recorder/server"
	"github.com/avnlearn/manim-recorder/shutdown"
)

var Version = "dev"

type rootFlags struct {
	cacheDir string
	device   string
	format   string
	logPath  string
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:   "manim-recorder",
		Short: "Record voiceovers for animated scenes",
		Long:  "Records narration takes for animation renders: push-to-talk from the terminal, through a browser page, or on Android via termux.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = *loaded
			if flags.cacheDir != "" {
				cfg.CacheDir = flags.cacheDir
			}
			if flags.device != "" {
				cfg.DeviceName = flags.device
			}
			if flags.format != "" {
				cfg.Format = flags.format
			}

			logDir, err := log.ResolveDir(flags.logPath)
			if err != nil {
				return err
			}
			log.SetDir(logDir)
			if err := log.Init(); err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
	}

	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&flags.cacheDir, "cache-dir", "", "directory for recorded takes")
	rootCmd.PersistentFlags().StringVar(&flags.device, "device", "", "capture device name")
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "", "take format: wav or flac")
	rootCmd.PersistentFlags().StringVar(&flags.logPath, "log-path", "", "log directory")

	rootCmd.AddCommand(newRecordCmd(&cfg))
	rootCmd.AddCommand(newServeCmd(&cfg))
	rootCmd.AddCommand(newGUICmd(&cfg))
	rootCmd.AddCommand(newTermuxCmd(&cfg))
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newDoctorCmd(&cfg))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "manim-recorder "+Version)
		},
	})

	return rootCmd
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

func newRecordCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record takes with the global push-to-talk key",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPTT(*cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, cancel := signalContext()
			defer cancel()

			go func() {
				for {
					if _, err := p.Record(cfg.CacheDir, ""); err != nil {
						return
					}
				}
			}()
			return p.RunUI(ctx)
		},
	}
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser recorder page",
		Long:  "Serves a page that records in the browser and uploads takes into the cache dir. Useful when the narrator is on another machine or a phone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.ServerAddr
			}
			ctx, cancel := signalContext()
			defer cancel()
			return server.New(cfg.CacheDir).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newGUICmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop recorder panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := gui.NewApp(*cfg)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
}

func newTermuxCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "termux",
		Short: "Record takes through the termux-api tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := NewTermuxRecorder()
			for {
				name, err := rec.Record(cfg.CacheDir, "")
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", name)
			}
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			actx, err := audio.NewContext()
			if err != nil {
				return err
			}
			defer actx.Close()
			return ListDevices(cmd.OutOrStdout(), actx)
		},
	}
}

func newDoctorCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run interactive system diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doctor.Run(*cfg); code != 0 {
				return fmt.Errorf("diagnostics failed")
			}
			return nil
		},
	}
}
