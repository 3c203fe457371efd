package actions

import (
	"github.com/martpipe/martpipe/rdbms/shared"
)

// ConnectionHandler resolves logical connection names to their type and full
// details.
type ConnectionHandler interface { // TODO: why is GetConnectionDetails() used to load connections just like interface ConnectionLoader{}?
	GetConnectionType(connectionName string) (connectionType string, err error)
	GetConnectionDetails(connectionName string) (connectionDetails *shared.ConnectionDetails, err error)
}

type ConnectionLoader interface {
	LoadConnection(connectionName string) (shared.ConnectionDetails, error)
}

// ConnectionGetterSetter is the config store surface used by the connection
// add and remove actions.
type ConnectionGetterSetter interface {
	Get(key string, out interface{}) error
	Set(key string, val interface{}) error
	Delete(key string) error
}

type ConnectionLister interface {
	Get(key string, out interface{}) error
	GetAllKeys() ([]string, error)
}

// ConnectionValidator is implemented by the per-database connection detail
// structs so an add action can vet and serialise them uniformly.
type ConnectionValidator interface {
	Parse() error
	GetMap(m map[string]string) map[string]string
	GetScheme() (string, error)
}
