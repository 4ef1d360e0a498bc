package auth

import (
	"crypto/rand"
	"math/big"
	"time"
)

// TimingConfig holds the failed-login delay settings
type TimingConfig struct {
	BaseDelayMs   int // Base delay in milliseconds
	RandomDelayMs int // Random delay range in milliseconds
}

// TimingDelay slows down failed access-code checks so a wrong code always
// costs roughly the same wall-clock time.
type TimingDelay struct {
	config TimingConfig
	sleep  func(time.Duration)
}

func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config, sleep: time.Sleep}
}

// Wait sleeps base + random jitter after a failure. Successes return at once.
func (td *TimingDelay) Wait(success bool) {
	if success || td == nil {
		return
	}
	td.sleep(td.next())
}

func (td *TimingDelay) next() time.Duration {
	delay := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	if td.config.RandomDelayMs > 0 {
		// crypto/rand so the jitter cannot be predicted
		n, err := rand.Int(rand.Reader, big.NewInt(int64(td.config.RandomDelayMs)))
		if err == nil {
			delay += time.Duration(n.Int64()) * time.Millisecond
		}
	}
	return delay
}
