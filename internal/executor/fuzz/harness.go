package fuzz

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/namnv2496/gameforge/internal/config"
)

// Harness is the chaos agent prepended to a generated program for a fuzz
// check. Once the program has a display it injects random key presses and
// clicks, and when Duration has elapsed it prints Sentinel and hard-exits the
// process so the program's own shutdown path cannot hang or swallow the exit.
type Harness struct {
	Duration     time.Duration
	Interval     time.Duration
	Probability  float64
	DangerZoneX  float64
	DangerZoneY  float64
	BottomMargin float64
	Sentinel     string
}

func NewHarness(conf config.FuzzConfig) Harness {
	return Harness{
		Duration:     conf.Duration,
		Interval:     conf.Interval,
		Probability:  conf.Probability,
		DangerZoneX:  conf.DangerZoneX,
		DangerZoneY:  conf.DangerZoneY,
		BottomMargin: conf.BottomMargin,
		Sentinel:     conf.Sentinel,
	}
}

var payloadTemplate = template.Must(template.New("harness").Funcs(template.FuncMap{
	"num":     func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
	"seconds": func(d time.Duration) string { return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) },
	"pystr":   strconv.QuoteToASCII,
}).Parse(payloadSource))

// Render produces the payload text.
func (h Harness) Render() (string, error) {
	if h.Duration <= 0 || h.Interval <= 0 {
		return "", fmt.Errorf("harness duration and interval must be positive")
	}
	var buf bytes.Buffer
	if err := payloadTemplate.Execute(&buf, h); err != nil {
		return "", fmt.Errorf("render harness: %w", err)
	}
	return buf.String(), nil
}

const payloadSource = `# --- [INJECTED FUZZ HARNESS] START ---
import sys as _fz_sys
import os as _fz_os
import random as _fz_random
import threading as _fz_threading
import time as _fz_time

try:
    _fz_sys.stdout.reconfigure(encoding='utf-8')
except Exception:
    pass


class _FzChaosAgent(object):
    DURATION = {{seconds .Duration}}
    INTERVAL = {{seconds .Interval}}
    PROBABILITY = {{num .Probability}}
    DANGER_X = {{num .DangerZoneX}}
    DANGER_Y = {{num .DangerZoneY}}
    BOTTOM_MARGIN = {{num .BottomMargin}}
    SENTINEL = {{pystr .Sentinel}}

    def __init__(self, pg):
        self.pg = pg
        self.w, self.h = 800, 600

    def wait_for_display(self):
        while True:
            try:
                surface = self.pg.display.get_surface() if self.pg.display.get_init() else None
                if surface is not None:
                    self.w, self.h = surface.get_size()
                    return
            except Exception:
                pass
            _fz_time.sleep(self.INTERVAL)

    def post(self, event_type, **attrs):
        try:
            self.pg.event.post(self.pg.event.Event(event_type, **attrs))
        except Exception:
            pass

    def press(self, key):
        self.post(self.pg.KEYDOWN, key=key)
        self.post(self.pg.KEYUP, key=key)

    def click(self):
        x = _fz_random.randint(0, max(self.w - 1, 0))
        y = _fz_random.randint(0, max(int(self.h * (1 - self.BOTTOM_MARGIN)) - 1, 0))
        if x >= self.w * (1 - self.DANGER_X) and y <= self.h * self.DANGER_Y:
            x, y = self.w // 2, self.h // 2
        self.post(self.pg.MOUSEBUTTONDOWN, button=1, pos=(x, y))
        self.post(self.pg.MOUSEBUTTONUP, button=1, pos=(x, y))
        try:
            self.pg.mouse.set_pos((x, y))
        except Exception:
            pass

    def tick(self):
        if _fz_random.random() >= self.PROBABILITY:
            return
        action = _fz_random.choice(('move', 'click', 'skill'))
        if action == 'move':
            self.press(_fz_random.choice((
                self.pg.K_LEFT, self.pg.K_RIGHT, self.pg.K_UP, self.pg.K_DOWN,
                self.pg.K_w, self.pg.K_a, self.pg.K_s, self.pg.K_d)))
        elif action == 'click':
            self.click()
        else:
            self.press(_fz_random.choice((self.pg.K_SPACE, self.pg.K_r, self.pg.K_e)))

    def finish(self):
        try:
            print(self.SENTINEL + ": survived the full test duration.")
            _fz_sys.stdout.flush()
            _fz_sys.stderr.flush()
        finally:
            _fz_os._exit(0)

    def run(self):
        self.wait_for_display()
        print("[FUZZER] start ({0}s)".format(self.DURATION))
        deadline = _fz_time.monotonic() + self.DURATION
        while True:
            if _fz_time.monotonic() >= deadline:
                self.finish()
            try:
                self.tick()
            except Exception:
                pass
            _fz_time.sleep(self.INTERVAL)


if not getattr(_fz_sys, '_fz_harness_installed', False):
    _fz_sys._fz_harness_installed = True
    try:
        import pygame as _fz_pygame
    except Exception:
        _fz_pygame = None
    if _fz_pygame is not None:
        _fz_threading.Thread(target=_FzChaosAgent(_fz_pygame).run, name='fz-chaos-agent', daemon=True).start()
# --- [INJECTED FUZZ HARNESS] END ---
`
