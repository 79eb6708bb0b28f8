package shared

type ServerConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite" validate:"required"`
	Beacon BeaconConfig `mapstructure:"beacon" validate:"required"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type BeaconConfig struct {
	Listener ListenerConfig `mapstructure:"listener" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}
