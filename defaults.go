package anew

import (
	"errors"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
)

// Defaults is the process-wide fallback attempt count and base delay applied
// to every builder that is not explicitly configured. A builder snapshots
// the current record when it is constructed, so later SetDefaults calls
// affect only builders created afterwards.
type Defaults struct {
	Attempts int           `validate:"gte=1,lte=100"`
	Delay    time.Duration `validate:"gte=0,lte=5m"`
}

var procDefaults atomic.Pointer[Defaults]

func init() {
	procDefaults.Store(&Defaults{Attempts: DefaultAttempts, Delay: DefaultDelay})
}

// SetDefaults replaces the process-wide defaults. Inputs are clamped the
// same way builder setters clamp: attempts below 1 become 1, negative delays
// become 0. Safe to call concurrently with readers.
func SetDefaults(attempts int, delay time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	if delay < 0 {
		delay = 0
	}
	procDefaults.Store(&Defaults{Attempts: attempts, Delay: delay})
}

// GetDefaults returns the current process-wide defaults.
func GetDefaults() (attempts int, delay time.Duration) {
	d := procDefaults.Load()
	return d.Attempts, d.Delay
}

// LoadDefaultsEnv installs defaults from the environment, reading an
// optional .env file first. Recognized keys:
//
//	ANEW_ATTEMPTS - integer retry count
//	ANEW_DELAY    - base delay as a Go duration string, e.g. "250ms"
//
// Unset keys keep their current values. Set keys are strictly validated and
// a *ValidationError is returned without touching the defaults if either is
// malformed or out of range. A missing .env file is fine; an unreadable or
// unparseable one is a *ValidationError too.
func LoadDefaultsEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errValidation("LoadDefaultsEnv", ".env: %v", err)
	}
	d := *procDefaults.Load()
	if v := os.Getenv("ANEW_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errValidation("LoadDefaultsEnv", "ANEW_ATTEMPTS: %v", err)
		}
		d.Attempts = n
	}
	if v := os.Getenv("ANEW_DELAY"); v != "" {
		dur, err := time.ParseDuration(v)
		if err != nil {
			return errValidation("LoadDefaultsEnv", "ANEW_DELAY: %v", err)
		}
		d.Delay = dur
	}
	if err := validate.Struct(d); err != nil {
		return &ValidationError{op: "LoadDefaultsEnv", err: err}
	}
	procDefaults.Store(&d)
	return nil
}
