package console

import (
	"github.com/ktakagaki/nescore/internal/cpu"
	"github.com/ktakagaki/nescore/internal/mapper"
	"github.com/ktakagaki/nescore/internal/rom"
)

// The error kinds a host can observe, re-exported so callers match against
// one package. Construction errors come from New; ErrCPUHalt is the only
// failure Run can surface once the console is built.
var (
	ErrRomNotFound       = rom.ErrNotFound
	ErrRomReadFailed     = rom.ErrReadFailed
	ErrInvalidImage      = rom.ErrInvalidImage
	ErrUnsupportedMapper = mapper.ErrUnsupported
	ErrCPUHalt           = cpu.ErrHalted
)
