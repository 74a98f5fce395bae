package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	socket_i "github.com/beka-birhanu/vinom-common/interfaces/socket"
	"github.com/beka-birhanu/vinom-maze-sync/compiler"
	"github.com/google/uuid"
)

const (
	mapDataRequestType = 3 // Viewer asks for the current map data.

	syncFrameRecordType   = 10 // Whole START, slices, END sequence, one unit per line.
	compileDoneRecordType = 11 // Host finished compiling; payload is the map name.
	compileFailRecordType = 12 // Host compile failed; payload is the error.
)

// Relay errors.
var (
	ErrNoViewer      = errors.New("viewer has not joined")
	ErrRelayDetached = errors.New("relay has no socket")
)

// Relay keeps track of viewers and pushes sync units to them over the UDP socket.
// Datagrams may be reordered, so a whole framed sequence travels in one record.
type Relay struct {
	socket    socket_i.ServerSocketManager
	broadcast func(ids []uuid.UUID, recordType byte, payload []byte)
	units     func() []string
	viewers   map[uuid.UUID]struct{}
	logger    general_i.Logger
	sync.RWMutex
}

// RelayConfig configures a Relay. Units supplies the framed map data sent in
// reply to a viewer's request.
type RelayConfig struct {
	Units  func() []string
	Logger general_i.Logger
}

// NewRelay creates a Relay that is not yet attached to a socket.
func NewRelay(c *RelayConfig) *Relay {
	units := c.Units
	if units == nil {
		units = func() []string { return nil }
	}
	return &Relay{
		broadcast: func([]uuid.UUID, byte, []byte) {},
		units:     units,
		viewers:   make(map[uuid.UUID]struct{}),
		logger:    c.Logger,
	}
}

// Attach routes the socket's requests and authentication through the relay.
func (r *Relay) Attach(s socket_i.ServerSocketManager) {
	r.Lock()
	r.socket = s
	r.broadcast = func(ids []uuid.UUID, recordType byte, payload []byte) {
		s.BroadcastToClients(ids, recordType, payload)
	}
	r.Unlock()

	s.SetClientRequestHandler(r.handleRequest)
	s.SetClientAuthenticator(r)
}

// Join registers a viewer.
func (r *Relay) Join(id uuid.UUID) {
	r.Lock()
	defer r.Unlock()
	r.viewers[id] = struct{}{}
	r.logger.Info(fmt.Sprintf("viewer joined: %s", id))
}

// Leave forgets a viewer.
func (r *Relay) Leave(id uuid.UUID) {
	r.Lock()
	defer r.Unlock()
	delete(r.viewers, id)
}

// SessionInfo returns the public key and socket address a joined viewer connects with.
func (r *Relay) SessionInfo(id uuid.UUID) ([]byte, string, error) {
	r.RLock()
	defer r.RUnlock()
	if _, ok := r.viewers[id]; !ok {
		return nil, "", ErrNoViewer
	}
	if r.socket == nil {
		return nil, "", ErrRelayDetached
	}
	return r.socket.GetPublicKey(), r.socket.GetAddr(), nil
}

// Authenticate accepts a viewer's UUID bytes as its token.
func (r *Relay) Authenticate(token []byte) (uuid.UUID, error) {
	r.RLock()
	defer r.RUnlock()
	id, err := uuid.FromBytes(token)
	if err != nil {
		return uuid.Nil, errors.New("invalid token")
	}

	if _, ok := r.viewers[id]; !ok {
		return uuid.Nil, ErrNoViewer
	}

	r.logger.Info(fmt.Sprintf("authenticated viewer: %s", id))
	return id, nil
}

// Announce sends units to every joined viewer.
func (r *Relay) Announce(units []string) {
	r.send(r.viewerIDs(), units)
}

// CompileDone tells every joined viewer how the host's compile ended.
func (r *Relay) CompileDone(res compiler.Result) {
	ids := r.viewerIDs()
	if len(ids) == 0 {
		return
	}

	r.RLock()
	broadcast := r.broadcast
	r.RUnlock()

	if res.Err != nil {
		broadcast(ids, compileFailRecordType, []byte(res.Err.Error()))
		return
	}
	broadcast(ids, compileDoneRecordType, []byte(res.MapName))
}

func (r *Relay) handleRequest(id uuid.UUID, requestType byte, _ []byte) {
	r.RLock()
	_, ok := r.viewers[id]
	r.RUnlock()
	if !ok {
		r.logger.Warning("received request from unknown viewer")
		return
	}

	switch requestType {
	case mapDataRequestType:
		r.send([]uuid.UUID{id}, r.units())
		r.logger.Info(fmt.Sprintf("sent map data to viewer: %s", id))
	default:
		r.logger.Warning(fmt.Sprintf("unknown request type %d from viewer: %s", requestType, id))
	}
}

func (r *Relay) send(ids []uuid.UUID, units []string) {
	if len(ids) == 0 || len(units) == 0 {
		return
	}

	r.RLock()
	broadcast := r.broadcast
	r.RUnlock()

	broadcast(ids, syncFrameRecordType, []byte(strings.Join(units, "\n")))
}

func (r *Relay) viewerIDs() []uuid.UUID {
	r.RLock()
	defer r.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.viewers))
	for id := range r.viewers {
		ids = append(ids, id)
	}
	return ids
}
