// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

type logger struct{}

func (l *logger) Debug(msg string, args ...any) {
	log.Debugf(msg, args...)
}

func (l *logger) Error(msg string, args ...any) {
	log.Errorf(msg, args...)
}

func (l *logger) Info(msg string, args ...any) {
	log.Infof(msg, args...)
}

func (l *logger) Warn(msg string, args ...any) {
	log.Warnf(msg, args...)
}

func NewGoCronLogger() gocron.Logger {
	return &logger{}
}
