package simulator

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Settings represents the simulator backend configuration.
type Settings struct {
	TrackLengthMs int      `yaml:"track_length_ms" mapstructure:"track_length_ms" default:"140000" validate:"gt=0"`
	TickMs        int      `yaml:"tick_ms" mapstructure:"tick_ms" default:"1000" validate:"gt=0"`
	SeedUsers     []string `yaml:"seed_users" mapstructure:"seed_users" default:"[\"default\"]" validate:"dive,required"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	s, _ := DecodeSettings(nil)
	return s
}

// DecodeSettings decodes a backend settings map, applies defaults and validates it.
func DecodeSettings(settings map[string]any) (Settings, error) {
	var s Settings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Settings{}, errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return Settings{}, errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&s); err != nil {
		return Settings{}, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return Settings{}, errors.Wrap(err, "validation failed")
	}

	if s.TickMs > s.TrackLengthMs {
		return Settings{}, errors.Newf("tick_ms (%d) cannot be greater than track_length_ms (%d)", s.TickMs, s.TrackLengthMs)
	}
	// Progress only lands on the track length itself when ticks divide it
	if s.TrackLengthMs%s.TickMs != 0 {
		return Settings{}, errors.Newf("track_length_ms (%d) must be a multiple of tick_ms (%d)", s.TrackLengthMs, s.TickMs)
	}

	return s, nil
}
