package config

import "time"

type Config struct {
	LogLevel  string `mapstructure:"logLevel"`
	Server    ServerConfig
	Transport TransportConfig
	Rooms     RoomsConfig
	Directory DirectoryConfig
}

type ServerConfig struct {
	Address string
	Auth    AuthConfig
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
}

type TransportConfig struct {
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
	SendBuffer  int           `mapstructure:"sendBuffer"`
}

// RoomsConfig controls conversation-room behavior. With EnforceMembership
// set, join requests are checked against the directory's participant list;
// otherwise any authenticated connection may join any conversation room.
type RoomsConfig struct {
	EnforceMembership bool `mapstructure:"enforceMembership"`
}

type DirectoryConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"inMemory"`
}
