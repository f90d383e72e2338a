package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"

	"notifyd/internal/app"
	"notifyd/internal/config"
	"notifyd/internal/version"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath     string
		once        bool
		showVersion bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.BoolVar(&once, "once", false, "run one reminder check and exit")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.App)
		return
	}
	if err := version.Validate(version.App); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	opts := app.Options{ConfigPath: cfgPath}
	if v, ok := os.LookupEnv("NOTIFY_ALLOW_REPEAT"); ok {
		allow := config.Truthy(v)
		opts.AllowRepeat = &allow
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(opts)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if once {
		res, err := a.TriggerOnce(ctx)
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = a.Stop(stopCtx)
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		fmt.Printf("due=%v queued=%d\n", res.Due, res.Queued)
		return
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)
}
