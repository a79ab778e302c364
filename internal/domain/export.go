package domain

import "time"

// ExportDriver is the kind of external database a destination writes to.
type ExportDriver string

const (
	ExportDriverMySQL    ExportDriver = "mysql"
	ExportDriverPostgres ExportDriver = "postgres"
	ExportDriverMongoDB  ExportDriver = "mongodb"
	ExportDriverSQLite   ExportDriver = "sqlite"
)

// ExportDestination binds a form to an external database that receives a
// copy of every submission. The password lives in the SecretStore.
type ExportDestination struct {
	ID         string       `json:"id"`
	FormID     string       `json:"formId"`
	Name       string       `json:"name"`
	Driver     ExportDriver `json:"driver"`
	Host       string       `json:"host"`     // hostname, file path (sqlite) or mongodb URI
	Port       int          `json:"port"`     // 0 for sqlite
	Database   string       `json:"database"` // db name or empty for sqlite
	Username   string       `json:"username"`
	SSLMode    string       `json:"sslMode"`
	Table      string       `json:"table"`    // table or collection name
	Schedule   string       `json:"schedule"` // cron expression, empty = manual only
	Enabled    bool         `json:"enabled"`
	LastExport time.Time    `json:"lastExport"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// SecretKey is the key under which the destination password is stored.
func (d *ExportDestination) SecretKey() string {
	return "export:" + d.ID
}

type ExportDestinationStore interface {
	CreateDestination(d *ExportDestination) error
	GetDestination(id string) (*ExportDestination, error)
	ListDestinations(formID string) ([]ExportDestination, error)
	ListScheduledDestinations() ([]ExportDestination, error)
	UpdateDestination(d *ExportDestination) error
	MarkExported(id string, at time.Time) error
	DeleteDestination(id string) error
}
