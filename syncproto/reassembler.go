package syncproto

import (
	"errors"
	"fmt"
	"strings"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/vinom-maze-sync/seed"
)

// Sync protocol errors.
var (
	ErrMalformedPayload = errors.New("malformed sync payload")
	ErrMalformedRecord  = errors.New("malformed seed record")
	ErrTooManyArgs      = errors.New("too many arguments for map data unit")
	ErrMissingLogger    = errors.New("reassembler needs a logger")
)

// maxArgs is the most arguments a single inbound unit may carry.
const maxArgs = 2

// Config configures a Reassembler.
type Config struct {
	Logger general_i.Logger

	// OnSeed receives every successfully decoded seed. It must not block;
	// regeneration is expected to be handed off to a worker.
	OnSeed func(seed.Info)

	// SurfaceErrors makes Handle return decode failures to its caller
	// instead of only logging them.
	SurfaceErrors bool
}

// Reassembler rebuilds a seed from START, slice and END units.
type Reassembler struct {
	acc           Accumulator
	onSeed        func(seed.Info)
	surfaceErrors bool
	logger        general_i.Logger
}

// NewReassembler creates a Reassembler in the idle state.
func NewReassembler(c *Config) (*Reassembler, error) {
	if c.Logger == nil {
		return nil, ErrMissingLogger
	}

	onSeed := c.OnSeed
	if onSeed == nil {
		onSeed = func(seed.Info) {}
	}
	return &Reassembler{
		onSeed:        onSeed,
		surfaceErrors: c.SurfaceErrors,
		logger:        c.Logger,
	}, nil
}

// HandleLine splits a raw unit on whitespace and handles its arguments.
func (r *Reassembler) HandleLine(line string) error {
	return r.Handle(strings.Fields(line))
}

// Handle processes one inbound unit. Only the first argument is used; extra
// arguments are reported but do not stop it from being processed.
func (r *Reassembler) Handle(args []string) error {
	if len(args) > maxArgs {
		r.logger.Error(fmt.Sprintf("%s: got %d", ErrTooManyArgs, len(args)))
	}
	if len(args) == 0 {
		return nil
	}

	switch keyword := args[0]; keyword {
	case Start:
		r.acc.Reset()
	case End:
		return r.finish()
	default:
		r.acc.Append(keyword)
	}
	return nil
}

// Pending reports how many payload characters are buffered.
func (r *Reassembler) Pending() int {
	return r.acc.Len()
}

func (r *Reassembler) finish() error {
	info, err := Decode(r.acc.Take())
	if err != nil {
		r.logger.Error(fmt.Sprintf("discarding map data: %s", err))
		if r.surfaceErrors {
			return err
		}
		return nil
	}

	r.logger.Info("received map data")
	r.onSeed(info)
	return nil
}
