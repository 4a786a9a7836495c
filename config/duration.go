package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration accepts "30s"-style strings or bare integers (seconds) in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	str := strings.ReplaceAll(string(b), "'", "")
	str = strings.ReplaceAll(str, "\"", "")
	str = strings.TrimSpace(str)

	if str == "" {
		*d = 0
		return nil
	}

	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}

	dur, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration: %q", str)
	}

	*d = Duration(dur)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
