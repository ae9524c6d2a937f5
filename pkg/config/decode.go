package config

import (
	"fmt"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// DecodeParams decodes a loose map over DefaultParams.
// Unknown keys are rejected; numeric strings are accepted.
func DecodeParams(raw map[string]any) (domain.JobParams, error) {
	params := domain.DefaultParams()
	if len(raw) == 0 {
		return params, nil
	}
	if err := decode(raw, &params); err != nil {
		return domain.JobParams{}, fmt.Errorf("invalid job parameters: %w", err)
	}
	return params, nil
}

// DecodeProfile decodes an inline device profile.
func DecodeProfile(raw map[string]any) (domain.DeviceProfile, error) {
	var p domain.DeviceProfile
	if err := decode(raw, &p); err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("invalid device profile: %w", err)
	}
	if _, err := p.Required(); err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("invalid device profile: %w", err)
	}
	return p, nil
}
