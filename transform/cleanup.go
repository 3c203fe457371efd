package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/logger"
	"github.com/sirupsen/logrus"
)

// CleanupHandlerDefault blocks until CTRL-C or SIGTERM, then shuts down the
// transform and its stats dumper.
func CleanupHandlerDefault(log logger.Logger, t TransformManager, s StatsManager, cancelFunc context.CancelFunc) {
	guid := t.getTransformGuid()
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	x := <-c      // wait for interrupt.
	fmt.Println() // add new line char for clean CLI look n feel.
	log.Info("Caught ", x.String())
	log.Info("Shutting down transform ", guid, "...")
	cancelFunc()    // quit the goroutine launched in LaunchTransform().
	t.shutdown()    // signal components to shutdown at the global level.
	s.StopDumping() // turn off stats dumping.
	log.Info("Shutdown complete for transform ", guid)
}

// GetCleanupHandlerWithChannelsFunc returns a handler that waits for either
// an OS interrupt or a shutdown request on the closer's channel, whichever
// comes first, then shuts the transform down if it hasn't completed already.
func GetCleanupHandlerWithChannelsFunc(log logger.Logger, transformGuid string, tc *TransformCloser) CleanupHandlerFunc {
	return func(log logger.Logger, tm TransformManager, s StatsManager, cancelFunc context.CancelFunc) {
		var e error
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case x := <-c: // interrupt...
			fmt.Println() // add return char for a clean CLI look n feel.
			log.Info("Caught ", x.String())
		case e = <-tc.chanShutdown: // or shutdown request / channel closure...
			if e != nil { // if the transform gave us an error...
				log.Error(e)
			}
		}
		// TODO: issue: if a user sends ctrl-c before launch is complete then this shutdown call below will only cause those components that have launched so far to shutdown
		//   so we get zombie components living on.
		if tc.ChannelsAreOpen() { // if the transform is not already complete...
			log.Info("Shutting down transform ", tm.getTransformGuid(), "...")
			cancelFunc()                                               // quit the looping transform step group.
			tm.shutdown()                                              // tell the global transform manager to shutdown all step groups.
			s.StopDumping()                                            // turn off status output.
			tc.CloseChannels(&TransformStatus{Status: StatusShutdown}) // record that the transform was shutdown explicitly.
			log.Info("Shutdown complete for transform ", transformGuid)
		}
		if e != nil && isatty.IsTerminal(os.Stdout.Fd()) { // if there was an error AND the terminal is interactive...
			// We could be running as a microservice via the serve command,
			// in which case exiting would be wrong.
			log.Fatal(e)
		}
	}
}

// GetPanicHandlerWithChannelsFunc creates a deferred recovery func that
// forwards panic messages as a final TransformStatus and signals shutdown
// exactly once.
func GetPanicHandlerWithChannelsFunc(tc *TransformCloser) components.PanicHandlerFunc {
	once := sync.Once{}
	return func() {
		r := recover()
		if r == nil {
			return
		}
		var msg string
		if x, ok := r.(*logrus.Entry); ok { // if the panic came from the logger...
			msg = x.Message
		} else {
			s, ok := r.(string)
			if !ok {
				panic("unexpected type found during recovery")
			}
			msg = s
		}
		tc.chanStatus <- TransformStatus{Status: StatusCompleteWithError, Error: msg}
		var err error
		if msg != "" {
			err = errors.New(msg)
		}
		once.Do(func() { tc.chanShutdown <- err }) // send the shutdown signal only once.
	}
}
