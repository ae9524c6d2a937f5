package protocol

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
)

// Info describes a registered dialect.
type Info struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

type entry struct {
	description string
	build       func(o *options) Encoder
}

var dialects = map[string]entry{
	"hpgl":  {"absolute PU/PD pen commands (IN; SP; VS; FS;)", func(*options) Encoder { return HPGL{} }},
	"dmpl":  {"M/D move opcodes with ! velocity and * force", func(*options) Encoder { return DMPL{} }},
	"gpgl":  {"space separated U/D moves with EC, V and BP setup", func(*options) Encoder { return GPGL{} }},
	"camm":  {"textual PU/PD motion with FS and VS", func(*options) Encoder { return CAMM{} }},
	"debug": {"logs every call and emits nothing", func(o *options) Encoder { return Debug{Logger: o.logger} }},
}

type options struct {
	logger *slog.Logger
}

// Option configures encoder construction.
type Option func(*options)

// WithLogger sets the logger used by the debug dialect.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Dialects returns the registered dialect ids in sorted order.
func Dialects() []string {
	ids := make([]string, 0, len(dialects))
	for id := range dialects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Describe returns Info for every dialect, sorted by id.
func Describe() []Info {
	out := make([]Info, 0, len(dialects))
	for _, id := range Dialects() {
		e := dialects[id]
		caps := e.build(&options{}).Capabilities()
		out = append(out, Info{ID: id, Description: e.description, Capabilities: capabilityList(caps)})
	}
	return out
}

// Lookup builds the encoder for a dialect id.
func Lookup(id string, opts ...Option) (Encoder, error) {
	e, ok := dialects[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, domain.NewError(domain.KindEncoding, "select", "unknown dialect", id)
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return e.build(o), nil
}

// Select looks up a dialect and checks it supports every required capability.
func Select(id string, required domain.Capability, opts ...Option) (Encoder, error) {
	enc, err := Lookup(id, opts...)
	if err != nil {
		return nil, err
	}
	if missing := required &^ enc.Capabilities(); missing != 0 {
		return nil, domain.NewError(domain.KindEncoding, "select",
			fmt.Sprintf("dialect %s does not support required capability", enc.Name()), missing)
	}
	return enc, nil
}

// SelectForProfile selects the profile's dialect with its Requires list.
func SelectForProfile(p domain.DeviceProfile, opts ...Option) (Encoder, error) {
	required, err := p.Required()
	if err != nil {
		return nil, domain.NewError(domain.KindEncoding, "select", err.Error(), p.Requires)
	}
	id := p.Dialect
	if id == "" {
		id = domain.DefaultDialect
	}
	return Select(id, required, opts...)
}

func capabilityList(c domain.Capability) []string {
	if c == 0 {
		return []string{}
	}
	return strings.Split(c.String(), ",")
}
