package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/adapter"
	"github.com/tamandutech/robotble/robot"
)

func main() {
	if err := run(context.Background()); err != nil {
		poop.HitFan(err)
	}
}

func run(ctx context.Context) error {
	var verbose bool
	flag.BoolVar(&verbose, "verbose", false, "log every request")
	flag.Parse()

	if flag.NArg() != 1 {
		return poop.Newf("expected 1 argument, got %d", flag.NArg())
	}

	log := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return poop.Chain(err)
		}
		log = l
	}

	a, err := adapter.NewForPlatform(&adapter.BackendConfig{
		Platform: robotble.CurrentPlatform(),
		Log:      log,
	})
	if err != nil {
		return poop.Chain(err)
	}

	cfg := &robotble.Config{
		Services: map[string]map[string]string{
			"6e400001-b5a3-f393-e0a9-e50e24dcca9e": {
				robot.DefaultTX: "6e400003-b5a3-f393-e0a9-e50e24dcca9e",
				robot.DefaultRX: "6e400002-b5a3-f393-e0a9-e50e24dcca9e",
			},
		},
	}

	device, err := a.ConnectByName(ctx, cfg, flag.Arg(0))
	if err != nil {
		return poop.Chain(err)
	}
	defer a.Disconnect(ctx)

	fmt.Printf("connected: %s (%s)\n", device.Name(), device.ID())

	r := robot.New(a.Client(), robot.WithLogger(log))
	status, err := r.BatteryVoltage(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	fmt.Printf("battery: %.0fmV %s\n", status.Voltage,
		robot.Level(status, robot.DefaultBatterySettings.LowWarningThreshold))

	return nil
}
