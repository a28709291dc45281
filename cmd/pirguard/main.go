package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/pirguard/pirguard/internal/config"
	"github.com/pirguard/pirguard/internal/healthsrv"
	"github.com/pirguard/pirguard/internal/httpapi"
	"github.com/pirguard/pirguard/internal/pirguard/countdown"
	"github.com/pirguard/pirguard/internal/pirguard/hal/periphio"
	halsim "github.com/pirguard/pirguard/internal/pirguard/hal/sim"
	"github.com/pirguard/pirguard/internal/pirguard/keypad"
	"github.com/pirguard/pirguard/internal/pirguard/service"
	"github.com/pirguard/pirguard/internal/pirguard/twi"
	"github.com/pirguard/pirguard/internal/pirguard/twi/sim"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

// waitBlink is the wait LED period while the slave is idle.
const waitBlink = 200 * time.Millisecond

func main() {
	cfg := config.FromEnv()

	out, closeConsole := consoleWriter(cfg)
	logger := log.New(out, "pirguard-"+cfg.Role+" ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, stop, cfg, logger)
	stop()
	closeConsole()
	if err != nil {
		logger.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

// consoleWriter mirrors log output to the serial debug console when one
// is configured.
func consoleWriter(cfg config.Config) (io.Writer, func()) {
	if cfg.ConsolePort == "" {
		return os.Stdout, func() {}
	}
	port, err := serial.Open(cfg.ConsolePort, &serial.Mode{BaudRate: cfg.ConsoleBaud})
	if err != nil {
		log.Printf("debug console %s unavailable: %v", cfg.ConsolePort, err)
		return os.Stdout, func() {}
	}
	return io.MultiWriter(os.Stdout, port), func() { _ = port.Close() }
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *log.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	b, err := openBoard(cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	health := healthsrv.New(cfg.GRPCAddr, logger)
	waiter := twi.Waiter{Limit: cfg.BusPollLimit, Backoff: cfg.BusPollBackoff}

	var (
		wg     sync.WaitGroup
		status service.StatusReporter
	)
	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				logger.Printf("%s stopped: %v", name, err)
				stop()
			}
		}()
	}

	switch cfg.Role {
	case "master":
		tx, closeBus, err := masterBus(cfg, waiter, logger)
		if err != nil {
			return err
		}
		defer closeBus()
		kp := halsim.NewKeypad(64)
		ctrl := newController(cfg, tx, kp, b, st, health, logger)
		defer ctrl.Close()
		status = ctrl
		spawn("controller", ctrl.Run)
		go runKeypadBench(ctx, os.Stdin, kp, b, logger)

	case "slave":
		bus := sim.New()
		disp := newDispatcher(b, st, logger)
		status = disp
		spawn("listener", newListener(cfg, bus, waiter, disp, b, health, logger).Run)

		m := twi.NewMaster(bus.Master(), twi.WithWaiter(waiter))
		var mu sync.Mutex
		send := func(msg types.BusMessage) error {
			mu.Lock()
			defer mu.Unlock()
			m.Init()
			_, err := m.Transmit(cfg.BusAddress, msg.Encode())
			return err
		}
		go runFrameBench(ctx, os.Stdin, send, logger)

	default: // sim
		bus := sim.New()
		disp := newDispatcher(b, st, logger)
		spawn("listener", newListener(cfg, bus, waiter, disp, b, nil, logger).Run)

		kp := halsim.NewKeypad(64)
		tx := twi.NewMaster(bus.Master(), twi.WithWaiter(waiter))
		ctrl := newController(cfg, tx, kp, b, st, health, logger)
		defer ctrl.Close()
		status = ctrl
		spawn("controller", ctrl.Run)
		go runKeypadBench(ctx, os.Stdin, kp, b, logger)
		logger.Printf("sim ready: type motion, a code such as 0423A, or rearm")
	}

	pruner := service.NewEventPruner(st.events, service.PrunerConfig{
		RetentionDays: cfg.EventRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger: logger,
		Addr:   cfg.HTTPAddr,
		Status: status,
		Events: st.events,
	})
	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()
	go func() {
		if err := health.Start(); err != nil {
			logger.Printf("grpc error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	health.Shutdown()
	wg.Wait()
	return nil
}

// masterBus picks the transport for the master role: the host's I2C
// controller on real hardware, otherwise a simulated bus with nobody
// listening, so every send reports a link error.
func masterBus(cfg config.Config, w twi.Waiter, logger *log.Logger) (service.Transmitter, func(), error) {
	if cfg.Pins == "periph" {
		bm, err := periphio.OpenBusMaster(cfg.I2CBus)
		if err != nil {
			return nil, nil, err
		}
		return bm, func() { _ = bm.Close() }, nil
	}
	logger.Printf("no bus hardware, peer will not acknowledge")
	return twi.NewMaster(sim.New().Master(), twi.WithWaiter(w)), func() {}, nil
}

func newController(cfg config.Config, tx service.Transmitter, kp *halsim.Keypad, b *board, st *stores, link service.LinkObserver, logger *log.Logger) *service.Controller {
	timer := countdown.New(countdown.NewTickerSource(), uint32(cfg.CountdownSeconds))
	return service.NewController(service.ControllerDeps{
		Logger:   logger,
		Bus:      tx,
		Address:  cfg.BusAddress,
		Timer:    timer,
		Keypad:   kp,
		Motion:   b.motion,
		Rearm:    b.rearm,
		AlarmOut: b.alarmOut,
		LinkLED:  b.linkLED,
		Codes:    st.codes,
		Match:    keypad.ParseMatchMode(cfg.CodeMatch),
		Events:   st.events,
		Link:     link,
	})
}

func newDispatcher(b *board, st *stores, logger *log.Logger) *service.Dispatcher {
	return service.NewDispatcher(service.DispatcherDeps{
		Logger:  logger,
		Display: b.display,
		Tone:    b.tone,
		Events:  st.events,
	})
}

func newListener(cfg config.Config, bus *sim.Bus, w twi.Waiter, disp *service.Dispatcher, b *board, link service.LinkObserver, logger *log.Logger) *service.Listener {
	slave := twi.NewSlave(bus.Slave(),
		twi.WithWaiter(w),
		twi.WithIdleHook(waitBlink, func() { _ = b.waitLED.Toggle() }),
	)
	return service.NewListener(service.ListenerDeps{
		Logger:     logger,
		Bus:        slave,
		Address:    cfg.BusAddress,
		Dispatcher: disp,
		Link:       link,
	})
}
