package config

import (
	"fmt"
	"time"
)

// Location resolves timezone as an IANA zone name or a "+08:00" style offset.
// An empty timezone is the process local zone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc, nil
	}
	t, err := time.Parse("-07:00", c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q, expected an IANA zone or a UTC offset like +08:00", c.Timezone)
	}
	_, offset := t.Zone()
	return time.FixedZone(c.Timezone, offset), nil
}
