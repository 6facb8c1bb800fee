// Copyright (c) 2025 Eric Habimana
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files and allows the parkgate commands to instantiate components
// from the adapter and use case layers using those loaded settings.
// The parsed and validated configuration is passed to its ultimate
// components as a series of individual params (for the mandatory
// items) and a series of functional options (for the optional items),
// so each component revalidates what it actually consumes. This
// design causes a bit of redundancy in favor of a defensive solution.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habimana/parkgate/pkg/adapter/config/settings"
	"github.com/habimana/parkgate/pkg/adapter/db/postgres"
	"github.com/habimana/parkgate/pkg/adapter/serialport"
	"github.com/habimana/parkgate/pkg/core/gatectl"
	"github.com/habimana/parkgate/pkg/core/hwio"
	"github.com/habimana/parkgate/pkg/core/usecase/entryuc"
	"github.com/habimana/parkgate/pkg/core/usecase/paymentuc"
	"gopkg.in/yaml.v3"
)

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases. It is implemented
// with primitive fields or other structs which are defined locally,
// not models or structs which are defined in lower layers, so the
// configuration format can be kept intact while other layers change
// freely.
type Config struct {
	Database  Database  // PostgreSQL ledger connection settings
	Gate      Serial    `yaml:"gate"`     // gate actuator board port
	Terminal  Serial    `yaml:"terminal"` // payment terminal port
	Gatectl   Gatectl   `yaml:"gatectl"`  // actuation timing settings
	Entry     Entry     // entry controller settings
	Payment   Payment   // payment processor settings
	Dashboard Dashboard // reporting dashboard settings
}

// Database contains the PostgreSQL ledger connection settings.
type Database struct {
	Host string // domain name or IP address of the DBMS server
	Port int    // port number of the DBMS server
	Name string // database name, like parkgate
	User string
	Pass string
}

// URL returns the connection URL corresponding to the `d` settings.
func (d Database) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	return u.String()
}

// ConnectionPool creates a database connection pool using the
// connection information which are kept in the `d` settings.
func (d Database) ConnectionPool(ctx context.Context) (*postgres.Pool, error) {
	p, err := postgres.NewPool(ctx, d.URL())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s:%d/%s: %w",
			d.Host, d.Port, d.Name, err)
	}
	return p, nil
}

// Serial identifies one serial device. An empty port name asks for
// auto-detection among the connected USB serial ports, optionally
// narrowed down by a product description hint.
type Serial struct {
	Port string `yaml:"port,omitempty"`
	Hint string `yaml:"hint,omitempty"`
	Baud int
}

// OpenGatePort opens the gate actuator board which is identified by
// the `s` settings.
func (s Serial) OpenGatePort() (*serialport.GatePort, error) {
	return serialport.OpenGatePort(s.Port, s.Hint, s.Baud)
}

// NewDialer creates a payment terminal dialer for the device which is
// identified by the `s` settings.
func (s Serial) NewDialer() *serialport.Dialer {
	return serialport.NewDialer(s.Port, s.Hint, s.Baud)
}

// Gatectl contains the gate actuation timing settings.
type Gatectl struct {
	OpenDwell      *settings.Duration `yaml:"open-dwell"`
	BuzzerDuration *settings.Duration `yaml:"buzzer-duration"`
}

// NewController instantiates a gate controller over the given port,
// passing the configured timings as functional options and leaving
// absent settings to the use case layer defaults.
func (g Gatectl) NewController(port hwio.GatePort) (*gatectl.Controller, error) {
	opts := make([]gatectl.Option, 0, 2)
	if d := g.OpenDwell; d != nil {
		opts = append(opts, gatectl.WithOpenDwell(time.Duration(*d)))
	}
	if d := g.BuzzerDuration; d != nil {
		opts = append(opts, gatectl.WithBuzzerDuration(time.Duration(*d)))
	}
	return gatectl.New(port, opts...)
}

// Entry contains the entry controller settings.
type Entry struct {
	Cooldown *settings.Duration `yaml:",omitempty"`
}

// Options returns the functional options corresponding to the `e`
// settings.
func (e Entry) Options() []entryuc.Option {
	var opts []entryuc.Option
	if d := e.Cooldown; d != nil {
		opts = append(opts, entryuc.WithCooldown(time.Duration(*d)))
	}
	return opts
}

// Payment contains the payment processor settings.
type Payment struct {
	RatePerHour       int64              `yaml:"rate-per-hour,omitempty"`
	HandshakeTimeout  *settings.Duration `yaml:"handshake-timeout"`
	ReconnectAttempts int                `yaml:"reconnect-attempts,omitempty"`
	ReconnectBackoff  *settings.Duration `yaml:"reconnect-backoff"`
}

// Options returns the functional options corresponding to the `p`
// settings.
func (p Payment) Options() []paymentuc.Option {
	var opts []paymentuc.Option
	if p.RatePerHour != 0 {
		opts = append(opts, paymentuc.WithRatePerHour(p.RatePerHour))
	}
	if d := p.HandshakeTimeout; d != nil {
		opts = append(opts, paymentuc.WithHandshakeTimeout(time.Duration(*d)))
	}
	if p.ReconnectAttempts != 0 || p.ReconnectBackoff != nil {
		attempts, backoff := p.ReconnectAttempts, time.Second
		if attempts == 0 {
			attempts = 5
		}
		if d := p.ReconnectBackoff; d != nil {
			backoff = time.Duration(*d)
		}
		opts = append(opts, paymentuc.WithReconnectPolicy(attempts, backoff))
	}
	return opts
}

// Dashboard contains the reporting dashboard settings.
type Dashboard struct {
	Listen   string // listening address, like :8080
	Logger   *bool  // whether to register the gin.Logger() middleware
	Recovery *bool  // whether to register the gin.Recovery() middleware
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `d` settings.
func (d Dashboard) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *d.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if *d.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// Load function loads, validates, and normalizes the configuration
// file and returns its settings as an instance of the Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// updates them with the default values wherever an optional setting
// is absent.
func (c *Config) ValidateAndNormalize() error {
	switch {
	case c.Database.Host == "":
		return fmt.Errorf("database.host is required")
	case c.Database.Port <= 0 || c.Database.Port > 65535:
		return fmt.Errorf("invalid database.port: %d", c.Database.Port)
	case c.Database.Name == "":
		return fmt.Errorf("database.name is required")
	case c.Database.User == "":
		return fmt.Errorf("database.user is required")
	}
	if c.Gate.Baud == 0 {
		c.Gate.Baud = 9600
	}
	if c.Terminal.Baud == 0 {
		c.Terminal.Baud = 9600
	}
	if c.Dashboard.Listen == "" {
		c.Dashboard.Listen = ":8080"
	}
	t := true
	if c.Dashboard.Logger == nil {
		c.Dashboard.Logger = &t
	}
	if c.Dashboard.Recovery == nil {
		c.Dashboard.Recovery = &t
	}
	for _, d := range []struct {
		name  string
		value *settings.Duration
	}{
		{"gatectl.open-dwell", c.Gatectl.OpenDwell},
		{"gatectl.buzzer-duration", c.Gatectl.BuzzerDuration},
		{"entry.cooldown", c.Entry.Cooldown},
		{"payment.handshake-timeout", c.Payment.HandshakeTimeout},
		{"payment.reconnect-backoff", c.Payment.ReconnectBackoff},
	} {
		if d.value != nil && *d.value <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	if c.Payment.RatePerHour < 0 {
		return fmt.Errorf(
			"payment.rate-per-hour may not be negative: %d",
			c.Payment.RatePerHour,
		)
	}
	if c.Payment.ReconnectAttempts < 0 {
		return fmt.Errorf(
			"payment.reconnect-attempts may not be negative: %d",
			c.Payment.ReconnectAttempts,
		)
	}
	return nil
}
