package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/transform"
	"github.com/pkg/errors"
)

const (
	urlContext4Launch = "/launch"
)

type WebServerConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	Scheme                    string `errorTxt:"scheme" mandatory:"no"`
	Addr                      net.IP `errorTxt:"address" mandatory:"no"`
	Port                      int    `errorTxt:"log level" mandatory:"no"`
	Connections               ConnectionLoader
	ConnectionsLister         ConnectionLister // used by the connections listing endpoint.
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
}

// RunWebServer starts the pipe server and blocks until it is stopped via the
// /stop endpoint or an interrupt signal.
func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	log := logger.NewLogger("martpipe", web.LogLevel, web.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	srv, chanStopServer, allTransformInfo := runServer(log, web)
	return waitForServer(log, srv, chanStopServer, allTransformInfo)
}

// runServer launches the HTTP server without blocking, returning the server,
// a channel that stops it, and the shared registry of running transforms.
func runServer(log logger.Logger, web *WebServerConfig) (*http.Server, chan string, *transform.SafeMapTransformInfo) {
	chanStopServer := make(chan string, 1)
	allTransformInfo := transform.NewSafeMapTransformInfo()
	r := mux.NewRouter()
	r.HandleFunc("/stop", GetHandlerStopServer(log, chanStopServer))
	r.Path("/health").HandlerFunc(GetHandlerHealth(log))
	r.Path("/connections").HandlerFunc(GetHandlerConnectionsList(log, web.ConnectionsLister))
	r.Path("/pipes").HandlerFunc(GetHandlerTransformList(log, allTransformInfo))
	r.Path("/pipes/{pipeId}/stats").HandlerFunc(GetHandlerTransformStats(log, allTransformInfo))
	r.Path("/pipes/{pipeId}/status").HandlerFunc(GetHandlerTransformStatus(log, allTransformInfo))
	r.Path("/pipes/{pipeId}/stop").HandlerFunc(GetHandlerTransformStop(log, allTransformInfo))
	r.Path(urlContext4Launch).Headers("Content-Type", "application/json").HandlerFunc(
		GetHandlerTransformLaunch(log, allTransformInfo, web.Connections, web.StatsDumpFrequencySeconds))
	srv := &http.Server{ // set timeouts to avoid Slowloris attacks.
		Addr:         fmt.Sprintf("%v:%v", web.Addr, web.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Panic(err)
			}
		}
	}()
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(web.Scheme), web.Addr, web.Port))
	return srv, chanStopServer, allTransformInfo
}

// waitForServer blocks until either chanStopServer fires or SIGINT (Ctrl+C)
// arrives, then stops running transforms and shuts the server down.
// SIGKILL, SIGQUIT and SIGTERM are not caught.
func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string, allTransformInfo *transform.SafeMapTransformInfo) error {
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	fmt.Println() // new line for a clean looking CLI.
	log.Info("Shutting down web server...")
	// Ask all running transforms to stop before shutting down HTTP.
	// TODO: cleanup the way shutdown works since there is no single mutex wrapping t.ChanStop below
	// TODO: the channel could be closed by the time we get there!
	// TODO: we should use a response from the shutdown action instead of waiting for timeout.
	// TODO: get a lock to prevent new transforms being launched at the point when someone shuts down the server.
	allTransformInfo.RLock()
	for _, t := range allTransformInfo.Internal {
		if !t.Status.TransformIsFinished() {
			t.ChanStop <- nil // stop without an error.
		}
	}
	allTransformInfo.RUnlock()
	<-time.After(3 * time.Second) // TODO: remove this hack!
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	// Shutdown doesn't block if there are no connections, otherwise it waits
	// until the deadline.
	return srv.Shutdown(ctx)
}
