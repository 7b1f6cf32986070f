// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"log/slog"
	"math"

	"github.com/524D/slicmatch/internal/featureio"
	"github.com/524D/slicmatch/internal/notify"
)

type verbosity int

const (
	infoSilent verbosity = iota
	infoBasic
	infoVerbose
)

// Progress is logged in steps of this many percent when verbose
const progressStep = 10

type logger struct {
	*slog.Logger
	verbosity verbosity
}

func newLogger(v verbosity, w io.Writer) *logger {
	level := slog.LevelInfo
	switch v {
	case infoSilent:
		level = slog.LevelError
	case infoVerbose:
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &logger{Logger: slog.New(h), verbosity: v}
}

func (l *logger) logStats(what, fn string, st featureio.Stats) {
	l.Info("read "+what, "file", fn, "added", st.Added)
	if st.Duplicates > 0 {
		l.Warn("duplicate feature ids ignored", "file", fn, "count", st.Duplicates)
	}
	if st.Filtered > 0 {
		l.Debug("features outside mass range", "file", fn, "count", st.Filtered)
	}
}

// observer returns a notify.Observer that writes to l
func (l *logger) observer() notify.Observer {
	return &slogObserver{l: l, next: progressStep}
}

type slogObserver struct {
	l    *logger
	next float64 // next progress percentage to log
}

func (o *slogObserver) Log(message string, severity notify.Severity) {
	switch severity {
	case notify.Error:
		o.l.Error(message)
	case notify.Warning:
		o.l.Warn(message)
	case notify.Health:
		if o.l.verbosity >= infoVerbose {
			o.l.Info(message)
		} else {
			o.l.Debug(message)
		}
	default:
		o.l.Info(message)
	}
}

// Progress is called from one goroutine at a time
func (o *slogObserver) Progress(description string, percent float64) {
	if percent < o.next {
		return
	}
	o.l.Debug(description, "percent", math.Round(percent))
	o.next = (math.Floor(percent/progressStep) + 1) * progressStep
}
