package config

// Database engines supported by GormEngine.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string `toml:"extras"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"       validate:"gte=0,lte=65535"`
	User       string `toml:"user"`
	Password   string `toml:"password"` //nolint:gosec // configuration value
	Name       string `toml:"name"       validate:"required"`
	GormEngine string `toml:"gormEngine" validate:"oneof=mysql postgres sqlite"`
}
