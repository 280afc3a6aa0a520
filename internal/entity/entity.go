package entity

import (
	"context"
	"fmt"

	"eight_sleep_local/internal/models"
)

// Platform groups entities by kind.
type Platform string

const (
	PlatformSensor       Platform = "sensor"
	PlatformBinarySensor Platform = "binary_sensor"
	PlatformSwitch       Platform = "switch"
	PlatformNumber       Platform = "number"
	PlatformButton       Platform = "button"
	PlatformSelect       Platform = "select"
	PlatformText         Platform = "text"
	PlatformClimate      Platform = "climate"
)

// Platforms in registration order.
var Platforms = []Platform{
	PlatformSensor, PlatformBinarySensor, PlatformSwitch, PlatformNumber,
	PlatformButton, PlatformSelect, PlatformText, PlatformClimate,
}

const (
	DeviceHub    = "hub"
	Manufacturer = "Eight Sleep (Local)"
	Model        = "Pod vLocal"
)

// DeviceInfo describes the physical device an entity belongs to.
type DeviceInfo struct {
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

// NewDeviceInfo builds the descriptor for "left", "right" or "hub" on the given companion server.
func NewDeviceInfo(kind, host string, port int) DeviceInfo {
	return DeviceInfo{
		Identifier:   fmt.Sprintf("eight_sleep_%s_device_%s_%d", kind, host, port),
		Name:         "Eight Sleep – " + models.Side(kind).Title(),
		Manufacturer: Manufacturer,
		Model:        Model,
	}
}

// Entity is a single exposed state.
type Entity interface {
	ID() string
	Name() string
	Platform() Platform
	Device() DeviceInfo
	// Available is false for coordinator-backed entities while the companion server is unreachable.
	Available() bool
	// State renders the current state string and dynamic attributes.
	State() (string, map[string]any)
}

// Optional capabilities, checked by the registry before dispatching a command.

type Switchable interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

type Settable interface {
	SetValue(ctx context.Context, value float64) error
}

type Pressable interface {
	Press(ctx context.Context) error
}

type Selectable interface {
	SelectOption(ctx context.Context, option string) error
	Options() []string
}

type TextSettable interface {
	SetText(ctx context.Context, value string) error
}

type ClimateControl interface {
	SetTemperature(ctx context.Context, temperatureF float64) error
	SetHVACMode(ctx context.Context, mode string) error
}

// Updater entities fetch data outside the coordinator poll.
type Updater interface {
	Update(ctx context.Context) error
}

// base carries the static descriptor shared by every platform.
type base struct {
	id       string
	name     string
	platform Platform
	device   DeviceInfo
	attrs    map[string]any
	polled   bool
	hub      *Hub
}

func (b *base) ID() string         { return b.id }
func (b *base) Name() string       { return b.name }
func (b *base) Platform() Platform { return b.platform }
func (b *base) Device() DeviceInfo { return b.device }

func (b *base) Available() bool {
	if !b.polled {
		return true
	}
	return b.hub.available()
}

// staticAttrs returns a fresh copy of the descriptor attributes.
func (b *base) staticAttrs() map[string]any {
	out := make(map[string]any, len(b.attrs)+2)
	for k, v := range b.attrs {
		out[k] = v
	}
	return out
}

func sideID(side, key string) string {
	return "eight_sleep_" + side + "_" + key
}

func onOff(v bool) string {
	if v {
		return models.StateOn
	}
	return models.StateOff
}
