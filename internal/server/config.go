package server

// Config configures the HTTP server.
type Config struct {
	// Host is the bind address.
	Host string `json:"host" mapstructure:"host"`
	// Port is the listen port.
	Port int `json:"port" mapstructure:"port"`
	// ReadTimeout is the request read timeout in seconds.
	ReadTimeout int `json:"read_timeout" mapstructure:"read_timeout"`
	// WriteTimeout is the response write timeout in seconds.
	WriteTimeout int `json:"write_timeout" mapstructure:"write_timeout"`
	// IdleTimeout is the keep-alive idle timeout in seconds.
	IdleTimeout int `json:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxUploadBytes bounds multipart upload size.
	MaxUploadBytes int64 `json:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	// AllowedOrigins is the CORS allow-list. "*" allows everything.
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30
	}
	if c.WriteTimeout == 0 {
		// Pipeline runs block on transcription; keep generous.
		c.WriteTimeout = 600
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 100 << 20
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}
