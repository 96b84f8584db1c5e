package main

type Settings struct {
	Port           int    `env:"PORT,default=5001"`
	JWTSecret      string `env:"JWT_SECRET,required=true"`
	BasePath       string `env:"BASE_PATH"`
	TokenTTLHours  int    `env:"TOKEN_TTL_HOURS,default=168"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	LogEncoding    string `env:"LOG_ENCODING,default=console"`
}
