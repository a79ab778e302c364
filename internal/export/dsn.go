package export

import (
	"fmt"
	"strings"

	"formbuilder/internal/domain"
)

// buildMySQLDSN constructs a MySQL DSN from an ExportDestination.
func buildMySQLDSN(dest *domain.ExportDestination, password string) string {
	port := dest.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		dest.Username, password, dest.Host, port, dest.Database,
	)
	if dest.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

// buildPostgresDSN constructs a Postgres connection string from an ExportDestination.
func buildPostgresDSN(dest *domain.ExportDestination, password string) string {
	port := dest.Port
	if port == 0 {
		port = 5432
	}
	sslMode := dest.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dest.Host, port, dest.Username, password, dest.Database, sslMode,
	)
}

// buildSQLiteDSN opens the file in WAL mode with a busy timeout.
func buildSQLiteDSN(dest *domain.ExportDestination) string {
	return dest.Host + "?_journal_mode=WAL&_busy_timeout=5000"
}

// buildMongoURI accepts either a full connection string in Host or builds one
// from host and port. The database name comes back separately.
func buildMongoURI(dest *domain.ExportDestination, password string) (uri, dbName string) {
	if strings.HasPrefix(dest.Host, "mongodb+srv://") || strings.HasPrefix(dest.Host, "mongodb://") {
		uri = dest.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
	} else {
		port := dest.Port
		if port == 0 {
			port = 27017
		}
		if dest.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", dest.Username, password, dest.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", dest.Host, port)
		}
	}

	dbName = dest.Database
	if dbName == "" {
		dbName = "formbuilder"
	}
	return uri, dbName
}

// maskPassword hides the password in a connection string before logging.
func maskPassword(s, password string) string {
	if password == "" {
		return s
	}
	return strings.ReplaceAll(s, password, "***")
}
