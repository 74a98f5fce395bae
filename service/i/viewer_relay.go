package i

import (
	"github.com/beka-birhanu/vinom-maze-sync/compiler"
	"github.com/google/uuid"
)

// ViewerRelay pushes map data and compile notices to joined viewers.
type ViewerRelay interface {
	// Join registers a viewer that may then authenticate on the relay socket.
	Join(uuid.UUID)

	// SessionInfo returns the relay's public key and socket address.
	SessionInfo(uuid.UUID) ([]byte, string, error)

	// Announce sends the given units, in order, to every joined viewer.
	Announce([]string)

	// CompileDone tells every joined viewer that the host finished compiling.
	CompileDone(compiler.Result)
}

// Compiler starts the external compiler on a level description without waiting for it.
type Compiler interface {
	Compile(mapFile string) error
}
