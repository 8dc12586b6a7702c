package database

// Drivers supported by the SQL storage layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds relational database connection settings.
// Path is used by the sqlite driver; the remaining fields by postgres.
type Config struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	Path           string
	MaxConnections int
}
