package telemetry

import "codeberg.org/vintr/impressd/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/impressd/telemetry.db"

	defaultBatchSize    = 32
	defaultBatchTimeout = 5
)

type Config struct {
	DBPath       string
	Enabled      bool
	BatchSize    int
	BatchTimeout int // seconds between background flushes
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		Enabled:      false,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
