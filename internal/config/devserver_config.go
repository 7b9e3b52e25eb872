package config

import "time"

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetPort() string {
	return portString(GetEnv(portEnvVar, "3000"))
}

func (DevServer) GetJWTSecret() string {
	return GetEnv("DEV_JWT_SECRET", "dev-secret-change-me")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return GetDuration("DEV_ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return GetDuration("DEV_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}

func (DevServer) GetResetTokenExpiry() time.Duration {
	return 15 * time.Minute
}
