package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSNFromParts(t *testing.T) {
	cfg := AppConfig{
		DBUser: "wake", DBPassword: "pw", DBHost: "db.internal", DBPort: "3306", DBName: "mzwake",
	}
	dsn := buildDSN(cfg)
	assert.Equal(t,
		"wake:pw@tcp(db.internal:3306)/mzwake?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		dsn)
}

func TestBuildDSNAlwaysSetsClientFoundRows(t *testing.T) {
	// A bare URI gets the parameter appended with the right separator.
	dsn := buildDSN(AppConfig{DatabaseURI: "u:p@tcp(h:3306)/d"})
	assert.Equal(t, "u:p@tcp(h:3306)/d?clientFoundRows=true", dsn)

	dsn = buildDSN(AppConfig{DatabaseURI: "u:p@tcp(h:3306)/d?parseTime=True"})
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=True&clientFoundRows=true", dsn)

	// An operator-supplied value is left alone.
	dsn = buildDSN(AppConfig{DatabaseURI: "u:p@tcp(h:3306)/d?clientFoundRows=false"})
	assert.Equal(t, "u:p@tcp(h:3306)/d?clientFoundRows=false", dsn)
}
