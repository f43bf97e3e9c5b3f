package config

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog/log"
)

// StartCPUProfile starts writing a CPU profile to c.CPUProfile, if set. The
// returned function stops the profile and closes the file; it is never nil.
func (c *Config) StartCPUProfile() (func(), error) {
	if c.CPUProfile == "" {
		return func() {}, nil
	}
	f, err := os.Create(c.CPUProfile)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	log.Debug().Str("path", c.CPUProfile).Msg("cpu-profile-started")
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			log.Err(err).Msg("cpu-profile-close")
		}
	}, nil
}
