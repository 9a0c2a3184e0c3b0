package config

import (
	"fmt"
	"time"
)

// BaseConfig is the application configuration tree. Values load from
// config/app.json with environment overrides.
type BaseConfig struct {
	Name        string      `json:"name" koanf:"name"`
	Env         string      `json:"env" koanf:"env"`
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
	SMTP        SMTP        `json:"smtp" koanf:"smtp"`
}

func (a *BaseConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("config: auth.signing_key is required")
	}
	return nil
}

func (a *BaseConfig) GetServer() Server           { return a.Server }
func (a *BaseConfig) GetAuth() *Auth              { return &a.Auth }
func (a *BaseConfig) GetPersistence() Persistence { return a.Persistence }
func (a *BaseConfig) GetSMTP() SMTP               { return a.SMTP }

type Server struct {
	Addr string `json:"addr" koanf:"addr"`
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":3000"
	}
	return s.Addr
}

// Auth implements the getters the auth package expects.
type Auth struct {
	SigningKey        string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod     string   `json:"signing_method" koanf:"signing_method"`
	ContextKey        string   `json:"context_key" koanf:"context_key"`
	TokenExpiration   int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup       string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme        string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer            string   `json:"issuer" koanf:"issuer"`
	Audience          []string `json:"audience" koanf:"audience"`
	BcryptCost        int      `json:"bcrypt_cost" koanf:"bcrypt_cost"`
	ResetTokenTTLExpr string   `json:"reset_token_ttl" koanf:"reset_token_ttl"`
	ResetBaseURL      string   `json:"reset_base_url" koanf:"reset_base_url"`
}

func (a *Auth) GetSigningKey() string { return a.SigningKey }

func (a *Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a *Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a *Auth) GetTokenExpiration() int {
	if a.TokenExpiration == 0 {
		return 24
	}
	return a.TokenExpiration
}

func (a *Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a *Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a *Auth) GetIssuer() string     { return a.Issuer }
func (a *Auth) GetAudience() []string { return a.Audience }
func (a *Auth) GetBcryptCost() int    { return a.BcryptCost }

func (a *Auth) GetResetTokenTTL() time.Duration {
	if a.ResetTokenTTLExpr == "" {
		return 10 * time.Minute
	}
	dur, err := time.ParseDuration(a.ResetTokenTTLExpr)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", a.ResetTokenTTLExpr),
		)
	}
	return dur
}

func (a *Auth) GetResetBaseURL() string {
	if a.ResetBaseURL == "" {
		return "http://localhost:3000/resetPassword"
	}
	return a.ResetBaseURL
}

type Persistence struct {
	Debug                 bool   `json:"debug" koanf:"debug"`
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Server                string `json:"server" koanf:"server"`
	Database              string `json:"database" koanf:"database"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p Persistence) GetDebug() bool            { return p.Debug }
func (p Persistence) GetOtelIdentifier() string { return "" }
func (p Persistence) GetDriver() string         { return p.Driver }
func (p Persistence) GetServer() string         { return p.Server }
func (p Persistence) GetDatabase() string       { return p.Database }

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

type SMTP struct {
	Host     string `json:"host" koanf:"host"`
	Port     int    `json:"port" koanf:"port"`
	Username string `json:"username" koanf:"username"`
	Password string `json:"password" koanf:"password"`
	From     string `json:"from" koanf:"from"`
}

func (s SMTP) GetHost() string     { return s.Host }
func (s SMTP) GetPort() int        { return s.Port }
func (s SMTP) GetUsername() string { return s.Username }
func (s SMTP) GetPassword() string { return s.Password }
func (s SMTP) GetFrom() string     { return s.From }

// Enabled reports whether SMTP is configured. When false the server falls
// back to logging outgoing mail.
func (s SMTP) Enabled() bool {
	return s.Host != ""
}
