package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/kellegous/poop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tamandutech/robotble/bridge"
	"github.com/tamandutech/robotble/robot"
)

func scan(ctx context.Context, env *env, args []string) error {
	a, err := env.adapter()
	if err != nil {
		return poop.Chain(err)
	}

	device, err := a.RequestDevice(ctx, &env.robot.Config, env.robot.Prefix())
	if err != nil {
		return describe(err)
	}
	fmt.Printf("%s\t%s\n", device.ID(), device.Name())
	return nil
}

func battery(ctx context.Context, env *env, args []string) error {
	_, r, disconnect, err := env.connect(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	defer disconnect()

	status, err := r.BatteryVoltage(ctx)
	if err != nil {
		return describe(err)
	}
	level := robot.Level(status, env.settings.Battery.LowWarningThreshold)
	fmt.Printf("%.0fmV\t%s\n", status.Voltage, level)
	return nil
}

func param(ctx context.Context, env *env, args []string) error {
	if len(args) < 1 {
		return poop.New("usage: param <get|set|list|install> ...")
	}

	_, r, disconnect, err := env.connect(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	defer disconnect()

	switch args[0] {
	case "get":
		if len(args) != 3 {
			return poop.New("usage: param get <class> <name>")
		}
		v, err := r.Parameter(ctx, args[1], args[2])
		if err != nil {
			return describe(err)
		}
		fmt.Println(v)
	case "set":
		if len(args) != 4 {
			return poop.New("usage: param set <class> <name> <value>")
		}
		v, err := r.SetParameter(ctx, args[1], args[2], args[3])
		if err != nil {
			return describe(err)
		}
		fmt.Println(v)
	case "list":
		table, err := r.ListParameters(ctx)
		if err != nil {
			return describe(err)
		}
		fmt.Print(table)
	case "install":
		if len(args) != 2 {
			return poop.New("usage: param install <file.yaml>")
		}
		params, err := robot.LoadParameters(args[1])
		if err != nil {
			return poop.Chain(err)
		}
		if err := r.InstallParameters(ctx, params); err != nil {
			return describe(err)
		}
		fmt.Printf("installed %d parameters\n", len(params))
	default:
		return poop.Newf("unknown param command %q", args[0])
	}
	return nil
}

func pause(ctx context.Context, env *env, args []string) error {
	_, r, disconnect, err := env.connect(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	defer disconnect()

	if err := r.Pause(ctx); err != nil {
		return describe(err)
	}
	return nil
}

func resume(ctx context.Context, env *env, args []string) error {
	_, r, disconnect, err := env.connect(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	defer disconnect()

	if err := r.Resume(ctx); err != nil {
		return describe(err)
	}
	return nil
}

// monitor prints every message the robot sends and polls its battery until
// interrupted.
func monitor(ctx context.Context, env *env, args []string) error {
	_, r, disconnect, err := env.connect(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	defer disconnect()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for msg, err := range r.Messages(ctx) {
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%s\n", time.Now().Format(time.TimeOnly), msg.CmdExecd, msg.Data)
		}
		return nil
	})
	g.Go(func() error {
		return pollBattery(ctx, env, r)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return describe(err)
	}
	return nil
}

// serve runs the WebSocket bridge until interrupted.
func serve(ctx context.Context, env *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", env.settings.Bridge.Addr, "address to listen on")
	if err := fs.Parse(args); err != nil {
		return poop.Chain(err)
	}

	a, r, disconnect, err := env.connect(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	defer disconnect()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           bridge.NewRouter(a, r, env.log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		env.log.Info("bridge listening", zap.String("addr", *addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return poop.Chain(err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return pollBattery(ctx, env, r)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return describe(err)
	}
	return nil
}

func pollBattery(ctx context.Context, env *env, r *robot.Robot) error {
	return r.PollBattery(ctx, env.settings.Battery, robot.NewBatteryHistory(60),
		func(status *robot.BatteryStatus, level robot.BatteryLevel, err error) {
			switch {
			case err != nil:
				env.log.Warn("battery reading failed", zap.Error(err))
			case level == robot.BatteryLow || level == robot.BatteryCritic:
				env.log.Warn("battery is low",
					zap.Float64("voltage", status.Voltage),
					zap.String("level", string(level)))
			default:
				env.log.Debug("battery",
					zap.Float64("voltage", status.Voltage),
					zap.String("level", string(level)))
			}
		})
}
