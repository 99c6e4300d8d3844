package database

import "github.com/noah-isme/pace-projection-api/pkg/config"

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "pace",
		Password: "secret",
		Name:     "paces",
		SSLMode:  "disable",
	}
}
