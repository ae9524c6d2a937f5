package protocol

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aretw0/cutline/pkg/domain"
)

// HPGL is dialect A: absolute pen commands terminated by ';'.
type HPGL struct{}

func (HPGL) Name() string { return "hpgl" }

func (HPGL) Capabilities() domain.Capability {
	return domain.CapVelocity | domain.CapForce | domain.CapPenSelect
}

func (HPGL) OnConnect() []byte { return []byte("IN;") }

func (HPGL) Move(x, y int, penDown bool) []byte {
	op := "PU"
	if penDown {
		op = "PD"
	}
	return []byte(op + coords(x, y) + ";")
}

func (HPGL) SetPen(pen int) []byte { return []byte("SP" + strconv.Itoa(pen) + ";") }

func (HPGL) SetVelocity(v float64) []byte { return []byte("VS" + formatNumber(v) + ";") }

func (HPGL) SetForce(f float64) []byte { return []byte("FS" + formatNumber(f) + ";") }

// DMPL is dialect B: single character move opcodes.
type DMPL struct{}

func (DMPL) Name() string { return "dmpl" }

func (DMPL) Capabilities() domain.Capability {
	return domain.CapVelocity | domain.CapForce
}

func (DMPL) OnConnect() []byte { return []byte("H") }

func (DMPL) Move(x, y int, penDown bool) []byte {
	op := "M"
	if penDown {
		op = "D"
	}
	return []byte(op + coords(x, y) + ";")
}

func (DMPL) SetPen(int) []byte { return nil }

func (DMPL) SetVelocity(v float64) []byte { return []byte("!" + formatNumber(v)) }

func (DMPL) SetForce(f float64) []byte { return []byte("*" + formatNumber(f)) }

// GPGL is dialect C: space separated setup and move commands.
type GPGL struct{}

func (GPGL) Name() string { return "gpgl" }

func (GPGL) Capabilities() domain.Capability {
	return domain.CapVelocity | domain.CapForce | domain.CapPenSelect
}

func (GPGL) OnConnect() []byte { return []byte(" ;:H A L0 ") }

func (GPGL) Move(x, y int, penDown bool) []byte {
	op := "U"
	if penDown {
		op = "D"
	}
	return []byte(op + coords(x, y) + " ")
}

func (GPGL) SetPen(pen int) []byte { return []byte("EC" + strconv.Itoa(pen) + " ") }

func (GPGL) SetVelocity(v float64) []byte { return []byte("V" + formatNumber(v) + " ") }

func (GPGL) SetForce(f float64) []byte { return []byte("BP" + formatNumber(f) + " ") }

// CAMM is dialect D: textual motion commands without pen selection.
type CAMM struct{}

func (CAMM) Name() string { return "camm" }

func (CAMM) Capabilities() domain.Capability {
	return domain.CapVelocity | domain.CapForce
}

func (CAMM) OnConnect() []byte { return []byte("IN;") }

func (CAMM) Move(x, y int, penDown bool) []byte {
	op := "PU"
	if penDown {
		op = "PD"
	}
	return []byte(op + coords(x, y) + ";")
}

func (CAMM) SetPen(int) []byte { return nil }

func (CAMM) SetVelocity(v float64) []byte { return []byte("VS" + formatNumber(v) + ";") }

func (CAMM) SetForce(f float64) []byte { return []byte("FS" + formatNumber(f) + ";") }

// Debug logs every call and emits nothing. It claims every capability so
// that it can stand in for any device.
type Debug struct {
	Logger *slog.Logger
}

func (Debug) Name() string { return "debug" }

func (Debug) Capabilities() domain.Capability {
	return domain.CapVelocity | domain.CapForce | domain.CapPenSelect
}

func (d Debug) OnConnect() []byte {
	d.log("on_connect")
	return nil
}

func (d Debug) Move(x, y int, penDown bool) []byte {
	d.log("move", slog.Int("x", x), slog.Int("y", y), slog.Bool("pen_down", penDown))
	return nil
}

func (d Debug) SetPen(pen int) []byte {
	d.log("set_pen", slog.Int("pen", pen))
	return nil
}

func (d Debug) SetVelocity(v float64) []byte {
	d.log("set_velocity", slog.Float64("velocity", v))
	return nil
}

func (d Debug) SetForce(f float64) []byte {
	d.log("set_force", slog.Float64("force", f))
	return nil
}

func (d Debug) log(call string, attrs ...slog.Attr) {
	if d.Logger == nil {
		return
	}
	d.Logger.LogAttrs(context.Background(), slog.LevelDebug, "encoder call", append([]slog.Attr{slog.String("call", call)}, attrs...)...)
}
