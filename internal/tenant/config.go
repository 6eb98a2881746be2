package tenant

// Config is the process-wide tenancy feature switch. When disabled, every
// consumer of the tenant scope becomes a no-op.
type Config struct {
	Enabled bool `conf:"enabled" yaml:"enabled" json:"enabled"`
}
