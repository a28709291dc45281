package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
	"time"

	halsim "github.com/pirguard/pirguard/internal/pirguard/hal/sim"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

// pulseWidth keeps a simulated input high long enough for the controller
// to sample it at least once.
const pulseWidth = 200 * time.Millisecond

// runKeypadBench reads console lines. "motion" and "rearm" pulse the
// simulated inputs when the board has them; every other line is typed on
// the keypad one character at a time.
func runKeypadBench(ctx context.Context, r io.Reader, kp *halsim.Keypad, b *board, logger *log.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "motion") && b.simMotion != nil:
			pulse(ctx, b.simMotion)
		case strings.EqualFold(line, "rearm") && b.simRearm != nil:
			pulse(ctx, b.simRearm)
		default:
			if err := kp.Type(ctx, strings.ToUpper(line)); err != nil {
				return
			}
		}
	}
	if err := sc.Err(); err != nil {
		logger.Printf("console: %v", err)
	}
}

func pulse(ctx context.Context, p *halsim.Pin) {
	_ = p.Set(true)
	defer func() { _ = p.Set(false) }()
	select {
	case <-ctx.Done():
	case <-time.After(pulseWidth):
	}
}

// runFrameBench reads console lines and hands each one to send as a bus
// message: the first character is the tag, the rest is the payload.
func runFrameBench(ctx context.Context, r io.Reader, send func(types.BusMessage) error, logger *log.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tag, ok := types.ParseTag(strings.ToUpper(line)[0])
		if !ok {
			logger.Printf("unknown tag %q (use M, C, W, T or R)", line[0])
			continue
		}
		if err := send(types.BusMessage{Tag: tag, Payload: line[1:]}); err != nil {
			logger.Printf("send %s: %v", tag, err)
		}
	}
}
