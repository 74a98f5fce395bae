package syncproto

import (
	"slices"
	"strings"
	"sync"

	"github.com/beka-birhanu/vinom-maze-sync/seed"
)

// Outbox holds the slices of the most recently prepared seed, ready to be served.
type Outbox struct {
	slices []string
	sync.RWMutex
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{slices: make([]string, 0)}
}

// Prepare encodes info and replaces the served slices with it.
func (o *Outbox) Prepare(info seed.Info) ([]string, error) {
	payload, err := Encode(info)
	if err != nil {
		return nil, err
	}
	parts := Split(payload, SliceLength)

	o.Lock()
	o.slices = parts
	o.Unlock()

	return slices.Clone(parts), nil
}

// Slices returns a copy of the prepared slices.
func (o *Outbox) Slices() []string {
	o.RLock()
	defer o.RUnlock()
	return slices.Clone(o.slices)
}

// Units returns the prepared slices framed by START and END. It is nil when
// nothing has been prepared yet.
func (o *Outbox) Units() []string {
	o.RLock()
	defer o.RUnlock()
	if len(o.slices) == 0 {
		return nil
	}
	return Frame(o.slices)
}

// Accumulator gathers inbound slices between START and END.
type Accumulator struct {
	buf strings.Builder
	sync.Mutex
}

// Reset discards everything gathered so far.
func (a *Accumulator) Reset() {
	a.Lock()
	defer a.Unlock()
	a.buf.Reset()
}

// Append adds a slice to the payload.
func (a *Accumulator) Append(slice string) {
	a.Lock()
	defer a.Unlock()
	a.buf.WriteString(slice)
}

// Take returns the gathered payload and empties the accumulator.
func (a *Accumulator) Take() string {
	a.Lock()
	defer a.Unlock()
	payload := a.buf.String()
	a.buf.Reset()
	return payload
}

// Len reports the number of buffered characters.
func (a *Accumulator) Len() int {
	a.Lock()
	defer a.Unlock()
	return a.buf.Len()
}
