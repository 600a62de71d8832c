package shutdown

import "os"

// shutdownSignals lists the signals that request graceful shutdown.
// signals_unix.go appends SIGTERM on platforms that have it.
var shutdownSignals = []os.Signal{os.Interrupt}
