package actions

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/transform"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		return nil, fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseTransformList struct {
	Status        WebServerResponse   `json:"status"`
	TransformList []TransformListItem `json:"pipes"`
}

type TransformListItem struct {
	TransformId          string           `json:"pipeId"`
	TransformDescription string           `json:"pipeDescription"`
	TransformStatus      transform.Status `json:"pipeStatus"`
}

type ResponseTransformStats struct {
	Status       WebServerResponse `json:"status"`
	Message      string            `json:"message"`
	StatsSummary interface{}       `json:"pipeStats"`
}

type ResponseTransformStatus struct {
	Status          WebServerResponse         `json:"status"`
	Message         string                    `json:"message"`
	TransformStatus transform.TransformStatus `json:"pipeStatus"`
}

type ResponseTransformStop struct {
	Status      WebServerResponse `json:"status"`
	Message     string            `json:"message"`
	TransformId string            `json:"pipeId"`
}

type ResponseTransformLaunch struct {
	Status      WebServerResponse `json:"status"`
	Message     string            `json:"message"`
	TransformId string            `json:"pipeId"`
}

type ResponseConnectionList struct {
	Status      WebServerResponse    `json:"status"`
	Connections []ConnectionListItem `json:"connections"`
}

type ConnectionListItem struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Details string `json:"details"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chanStop <- "stop"
		log.Info("Stop signal sent")
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

// GetHandlerTransformLaunch returns a handler that unmarshals a transform
// definition from the request body, backfills connection details from the
// config store where the definition omits them and launches the transform in
// the background, responding with its new id.
func GetHandlerTransformLaunch(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo, c ConnectionLoader, statsDumpFrequencySeconds int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		t := transform.TransformDefinition{}
		if err := json.Unmarshal(b, &t); err != nil {
			logAndRespond(log, err, w,
				ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
			return
		}
		if err := loadConnectionDataIfMissing(c, &t); err != nil {
			logAndRespond(log, err, w,
				ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("error loading connection details: %v", err)})
			return
		}
		guid, err := transform.LaunchTransformDefinition(log, allTransformInfo, &t, false, statsDumpFrequencySeconds)
		if err != nil {
			logAndRespond(log, err, w,
				ResponseTransformLaunch{Status: Error, Message: fmt.Sprintf("invalid JSON transform definition supplied: %v", err)})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseTransformLaunch{Status: Okay, Message: "transform launched", TransformId: guid})
	}
}

// GetHandlerConnectionsList returns a handler that renders the connections found in
// the config store with DSN passwords redacted.
func GetHandlerConnectionsList(log logger.Logger, c ConnectionLister) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := c.GetAllKeys()
		if err != nil {
			log.Error(err)
			w.WriteHeader(http.StatusInternalServerError)
			respond(log, w, ResponseConnectionList{Status: Error})
			return
		}
		sort.Strings(keys)
		conns := make([]ConnectionListItem, 0, len(keys))
		for _, k := range keys {
			conn := shared.ConnectionDetails{}
			if err := c.Get(k, &conn); err != nil {
				log.Error(err)
				w.WriteHeader(http.StatusInternalServerError)
				respond(log, w, ResponseConnectionList{Status: Error})
				return
			}
			conns = append(conns, ConnectionListItem{Name: k, Type: conn.Type, Details: getRedactedConnectionData(&conn)})
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseConnectionList{Status: Okay, Connections: conns})
	}
}

func GetHandlerTransformStop(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		t, ok := allTransformInfo.Load(id)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request to stop transform ", id, " that doesn't exist.")
			respond(log, w, ResponseTransformStop{Status: Error, Message: "transform does not exist", TransformId: id})
			return
		}
		w.WriteHeader(http.StatusOK)
		if t.Status.TransformIsFinished() {
			log.Info("HTTP request to stop transform ", id, " has already finished.")
			respond(log, w, ResponseTransformStop{Status: Error, Message: "transform already ended", TransformId: id})
			return
		}
		log.Info("Stopping transform ", id)
		t.ChanStop <- nil // a nil error stops the transform without marking it failed.
		respond(log, w, ResponseTransformStop{Status: Okay, Message: "shutting down", TransformId: id})
	}
}

func GetHandlerTransformList(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		trans := make([]TransformListItem, 0, len(allTransformInfo.Internal))
		allTransformInfo.Lock()
		for jobId, v := range allTransformInfo.Internal {
			trans = append(trans, TransformListItem{
				TransformId:          jobId,
				TransformDescription: v.Transform.Description,
				TransformStatus:      v.Status.Status,
			})
		}
		allTransformInfo.Unlock()
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseTransformList{Status: Okay, TransformList: trans})
	}
}

func GetHandlerTransformStats(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		s, ok := allTransformInfo.Load(id)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request to fetch stats for transform ", id, " that doesn't exist.")
			respond(log, w, ResponseTransformStats{Status: Error, Message: fmt.Sprintf("transform %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseTransformStats{Status: Okay, Message: "", StatsSummary: s.Stats.GetStats()})
	}
}

func GetHandlerTransformStatus(log logger.Logger, allTransformInfo *transform.SafeMapTransformInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["pipeId"]
		ti, ok := allTransformInfo.Load(id)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			log.Info("HTTP request status of transform ", id, " that doesn't exist.")
			respond(log, w, ResponseTransformStatus{Status: Error, Message: fmt.Sprintf("transform %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseTransformStatus{Status: Okay, Message: "", TransformStatus: ti.Status})
	}
}

// logAndRespond logs the error then writes http.StatusBadRequest and r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, r ResponseTransformLaunch) {
	log.Error(err)
	w.WriteHeader(http.StatusBadRequest)
	respond(log, w, r)
}

// respond marshals i with indentation and writes it to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Panic(err)
	}
	if _, err = fmt.Fprint(w, string(j)); err != nil {
		log.Panic(err)
	}
}
