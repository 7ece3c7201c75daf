package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"imagesync/logging"
)

// exitCodeInterrupted is the conventional status for a process killed by SIGINT
const exitCodeInterrupted = 130

// SetupHandler routes SIGINT and SIGTERM to onSignal. The first signal asks
// the running work to stop cooperatively; a second one exits immediately.
// The returned function unregisters the handler.
func SetupHandler(onSignal func()) (stop func()) {
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		received := 0
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				received++
				if received > 1 {
					logging.LogWarning("Received %s again, exiting", sig)
					os.Exit(exitCodeInterrupted)
				}
				logging.LogWarning("Received %s, stopping after in-flight work finishes (press Ctrl+C again to force)", sig)
				if onSignal != nil {
					onSignal()
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	// Get the number of CPUs available
	numCPU := runtime.NumCPU()

	// Leave headroom for the walker and the UI
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
