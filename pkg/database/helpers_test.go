package database

import (
	"time"

	"github.com/noah-isme/school-admin-api/pkg/config"
)

func testDatabaseConfig(connectTimeout time.Duration) config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:           "localhost",
		Port:           5432,
		User:           "school_user",
		Password:       "secret",
		Name:           "school_management",
		SSLMode:        "disable",
		ConnectTimeout: connectTimeout,
	}
}
