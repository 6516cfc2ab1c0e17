package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// RoundStatus is the lifecycle state of a round. The zero value is not a
// valid status.
type RoundStatus uint8

const (
	RoundPending RoundStatus = iota + 1
	RoundInProgress
	RoundCompleted
)

var ErrInvalidTransition = errors.New("invalid round status transition")

var roundStatusNames = map[RoundStatus]string{
	RoundPending:    "PENDING",
	RoundInProgress: "IN_PROGRESS",
	RoundCompleted:  "COMPLETED",
}

func (s RoundStatus) String() string {
	if name, ok := roundStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RoundStatus(%d)", uint8(s))
}

func (s RoundStatus) Valid() bool {
	_, ok := roundStatusNames[s]
	return ok
}

func ParseRoundStatus(s string) (RoundStatus, error) {
	for status, name := range roundStatusNames {
		if name == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown round status %q", s)
}

// CanAdvanceTo reports whether next is reachable from s. Staying in the same
// state is allowed; moving backwards never is.
func (s RoundStatus) CanAdvanceTo(next RoundStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next >= s
}

func (s RoundStatus) Advance(next RoundStatus) (RoundStatus, error) {
	if !s.CanAdvanceTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

func (s RoundStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return json.Marshal(s.String())
}

func (s *RoundStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseRoundStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan implements sql.Scanner; statuses are stored by name.
func (s *RoundStatus) Scan(value any) error {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RoundStatus", value)
	}
	parsed, err := ParseRoundStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s RoundStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot store %s", s)
	}
	return s.String(), nil
}
