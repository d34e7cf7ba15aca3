package capture

import (
	"log/slog"
	"os"
	"os/signal"
)

// absorbInterrupts installs a SIGINT handler for the lifetime of a run. The
// handler only logs; the child gets the interrupt from the terminal, exits on
// its own terms, and the capture loop then drains the rest of its output.
func absorbInterrupts(logger *slog.Logger) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				logger.Info("Interrupt received, waiting for child process to exit")
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
