package database

import "attendance.service/internal/config"

func testConfig() config.Config {
	return config.Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5433", DBName: "d"}
}
