//go:build unix

package signalhandler

import (
	"syscall"
	"testing"
	"time"
)

func TestSetupHandlerInvokesCallback(t *testing.T) {
	called := make(chan struct{}, 1)
	stop := SetupHandler(func() { called <- struct{}{} })
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("sending signal: %v", err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}
}
