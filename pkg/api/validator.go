package api

import (
	"errors"
	"strings"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p StartRunPayload) Validate() error {
	if p.OriginPathID == "" || p.RunPathID == "" {
		return errors.New("originPathId and runPathId are required")
	}
	if p.HPMax < 0 {
		return errors.New("hpMax cannot be negative")
	}
	switch strings.ToLower(p.Policy) {
	case "", "auto", "attack-only":
	default:
		return errors.New("policy must be auto or attack-only")
	}
	return nil
}

func (p FloorPayload) Validate() error {
	if p.Floor < 0 {
		return errors.New("floor cannot be negative")
	}
	return nil
}

func (p IndexPayload) Validate() error {
	if p.Index < 0 {
		return errors.New("index cannot be negative")
	}
	return nil
}

func (p BargainPayload) Validate() error {
	if !p.Decline && p.Index < 0 {
		return errors.New("index cannot be negative")
	}
	return nil
}
