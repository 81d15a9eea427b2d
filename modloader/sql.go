package modloader

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlLoader fetches module source text from a table of (path, source)
// rows, shared by the three database-backed loaders below. Grounded on
// the teacher's pkg/pdo driver trio: one loader per database/sql driver,
// differing only in which driver name is registered and which DSN shape
// it accepts.
type sqlLoader struct {
	db        *sql.DB
	table     string
	pathCol   string
	sourceCol string
}

func (l *sqlLoader) Load(segments []string) (string, error) {
	path := joinDotted(segments)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", l.sourceCol, l.table, l.pathCol)
	var src string
	if err := l.db.QueryRow(query, path).Scan(&src); err != nil {
		return "", fmt.Errorf("modloader: loading module %q: %w", path, err)
	}
	return src, nil
}

// tableConfig names the table/columns a SQL-backed loader reads module
// source from; all three constructors default to the same shape (a
// "modules" table with "path"/"source" columns) but accept an override.
type tableConfig struct {
	Table, PathCol, SourceCol string
}

func defaultTable() tableConfig {
	return tableConfig{Table: "modules", PathCol: "path", SourceCol: "source"}
}

// MySQLLoader loads module source from a MySQL table via
// github.com/go-sql-driver/mysql.
type MySQLLoader struct{ sqlLoader }

func NewMySQLLoader(dsn string, cfg ...tableConfig) (*MySQLLoader, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	c := defaultTable()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &MySQLLoader{sqlLoader{db: db, table: c.Table, pathCol: c.PathCol, sourceCol: c.SourceCol}}, nil
}

// PostgresLoader loads module source from a PostgreSQL table via
// github.com/lib/pq.
type PostgresLoader struct{ sqlLoader }

func NewPostgresLoader(dsn string, cfg ...tableConfig) (*PostgresLoader, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	c := defaultTable()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &PostgresLoader{sqlLoader{db: db, table: c.Table, pathCol: c.PathCol, sourceCol: c.SourceCol}}, nil
}

// SQLiteLoader loads module source from a SQLite table via
// modernc.org/sqlite (a cgo-free driver, registered under the name
// "sqlite").
type SQLiteLoader struct{ sqlLoader }

func NewSQLiteLoader(dsn string, cfg ...tableConfig) (*SQLiteLoader, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	c := defaultTable()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &SQLiteLoader{sqlLoader{db: db, table: c.Table, pathCol: c.PathCol, sourceCol: c.SourceCol}}, nil
}
