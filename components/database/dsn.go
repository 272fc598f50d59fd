package database

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	mysqlDriver "gorm.io/driver/mysql"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// buildDSN builds DSN from datasource pieces if DSN not provided.
func buildDSN(dialect string, ds *DataSourceConfig) (string, error) {
	if strings.TrimSpace(ds.DSN) != "" {
		return ds.DSN, nil
	}
	if ds.Host == "" || ds.User == "" || ds.Database == "" {
		return "", errors.New("host, user, database required when dsn not provided")
	}
	switch dialect {
	case DialectMySQL:
		port := ds.Port
		if port == 0 {
			port = 3306
		}
		params := url.Values{}
		params.Set("parseTime", "true")
		params.Set("charset", "utf8mb4")
		params.Set("loc", "Local")
		for k, v := range ds.Params {
			params.Set(k, v)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", ds.User, ds.Password, ds.Host, port, ds.Database, params.Encode()), nil
	default:
		port := ds.Port
		if port == 0 {
			port = 5432
		}
		// libpq key=value 格式
		base := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d", ds.Host, ds.User, ds.Password, ds.Database, port)
		keys := make([]string, 0, len(ds.Params))
		for k := range ds.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			base += fmt.Sprintf(" %s=%s", k, ds.Params[k])
		}
		return base, nil
	}
}

func dialector(dialect, dsn string) gorm.Dialector {
	if dialect == DialectMySQL {
		return mysqlDriver.New(mysqlDriver.Config{DSN: dsn})
	}
	return gormpg.Open(dsn)
}
