package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/adapter"
	"github.com/tamandutech/robotble/internal/logging"
	"github.com/tamandutech/robotble/internal/settings"
	"github.com/tamandutech/robotble/native"
	"github.com/tamandutech/robotble/robot"
	"github.com/tamandutech/robotble/robots"
	"github.com/tamandutech/robotble/serial"
)

type Flags struct {
	Config  string
	Robot   string
	Verbose bool
}

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"scan":    scan,
	"battery": battery,
	"param":   param,
	"pause":   pause,
	"resume":  resume,
	"monitor": monitor,
	"serve":   serve,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		poop.HitFan(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <scan|battery|param|pause|resume|monitor|serve> [args]\n", os.Args[0])
	flag.PrintDefaults()
}

func run(ctx context.Context) error {
	var flags Flags
	flag.StringVar(&flags.Config, "config", "", "path to robotctl.yaml")
	flag.StringVar(&flags.Robot, "robot", "", "id of the robot in the registry")
	flag.BoolVar(&flags.Verbose, "verbose", false, "log at debug level")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		return poop.Newf("unknown command %q", flag.Arg(0))
	}

	env, err := newEnv(&flags)
	if err != nil {
		return poop.Chain(err)
	}
	defer env.log.Sync() //nolint:errcheck

	return cmd(ctx, env, flag.Args()[1:])
}

// env is what every command needs: settings, a logger and the robot to talk
// to.
type env struct {
	verbose  bool
	settings *settings.Settings
	log      *zap.Logger
	robot    *robots.Robot
}

func newEnv(flags *Flags) (*env, error) {
	s, err := settings.Load(flags.Config)
	if err != nil {
		return nil, poop.Chain(err)
	}
	if flags.Verbose {
		s.Log.Level = "debug"
	}

	log, err := logging.New(s.Log)
	if err != nil {
		return nil, poop.Chain(err)
	}

	reg, err := robots.Load(s.Robots)
	if err != nil {
		return nil, poop.Chain(err)
	}

	id := flags.Robot
	if id == "" {
		id = s.Robot
	}
	if id == "" && len(reg.Robots) == 1 {
		id = reg.Robots[0].ID
	}
	r, ok := reg.Lookup(id)
	if !ok {
		return nil, poop.Newf("robot %q is not in %s", id, s.Robots)
	}

	return &env{
		verbose:  flags.Verbose,
		settings: s,
		log:      log.With(zap.String("robot", r.ID)),
		robot:    r,
	}, nil
}

func (e *env) adapter() (*adapter.Adapter, error) {
	cfg := &adapter.BackendConfig{
		Platform:         e.settings.CurrentPlatform(),
		Interface:        e.robot.Interface,
		DiscoveryTimeout: e.settings.Discovery.Timeout,
		Serial: []serial.ConnectOption{
			serial.WithBaudRate(e.settings.Serial.BaudRate),
			serial.WithTerminator(e.settings.Serial.Terminator),
		},
		Log: e.log,
	}

	if e.verbose {
		cfg.Native = append(cfg.Native, native.WithNotificationCallback(func(id string, data []byte) {
			fmt.Fprintf(os.Stderr, "<recv %s: %q>\n", id, data)
		}))
		cfg.Serial = append(cfg.Serial,
			serial.OnRecv(func(data []byte) {
				fmt.Fprintf(os.Stderr, "<recv: %q>\n", data)
			}),
			serial.OnSend(func(rx string, data []byte) {
				fmt.Fprintf(os.Stderr, "<send %s: %q>\n", rx, data)
			}))
	}

	return adapter.NewForPlatform(cfg, adapter.WithLogger(e.log))
}

// connect finds the robot, connects to it and returns the robot along with a
// function to disconnect.
func (e *env) connect(ctx context.Context) (*adapter.Adapter, *robot.Robot, func(), error) {
	a, err := e.adapter()
	if err != nil {
		return nil, nil, nil, poop.Chain(err)
	}

	device, err := a.ConnectByName(ctx, &e.robot.Config, e.robot.Prefix())
	if err != nil {
		return nil, nil, nil, describe(err)
	}
	e.log.Info("connected",
		zap.String("id", device.ID()),
		zap.String("name", device.Name()))

	disconnect := func() {
		if err := a.Disconnect(context.Background()); err != nil {
			e.log.Warn("disconnect", zap.Error(err))
		}
	}
	return a, robot.New(a.Client(), robot.WithLogger(e.log)), disconnect, nil
}

// describe adds the suggested action of a robot error to its message.
func describe(err error) error {
	if action := robotble.ActionOf(err); action != "" {
		return poop.Chain(fmt.Errorf("%w (%s)", err, action))
	}
	return poop.Chain(err)
}
