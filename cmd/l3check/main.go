// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/jessevdk/go-flags"
	"github.com/sapcc/go-bits/logg"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/l3check/internal/checks"
	"github.com/sapcc/l3check/internal/client"
	"github.com/sapcc/l3check/internal/config"
	"github.com/sapcc/l3check/internal/neutron"
)

func main() {
	parser := flags.NewParser(&config.Global, flags.Default)
	parser.ShortDescription = "L3Check"
	parser.LongDescription = "L3Check verifies the router management surface of a Neutron API against a live cloud."
	if _, err := parser.AddGroup("Output formatters", "", &client.Formatters); err != nil {
		logg.Fatal(err.Error())
	}

	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			} else {
				logg.Fatal(fe.Error())
			}
		}
		os.Exit(code)
	}

	// parse config file
	config.ParseConfig(parser)

	logg.ShowDebug = config.Global.Default.Debug
	if config.IsDebug() {
		log.SetLevel(log.DebugLevel)
	}

	if dsn := config.Global.Default.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			logg.Fatal(err.Error())
		}
		defer sentry.Flush(5 * time.Second)
	}

	ctx := context.Background()
	neutronClient, err := neutron.ConnectToNeutron(ctx)
	if err != nil {
		logg.Fatal("connecting to neutron failed: %s", err.Error())
	}

	if interval := config.Global.Default.CheckInterval; interval > 0 {
		runScheduled(ctx, neutronClient, time.Duration(interval)*time.Minute)
		return
	}

	if !runSuite(ctx, neutronClient) {
		os.Exit(1)
	}
}

// runSuite runs all checks for every configured IP version and renders the
// result table. Returns false if any check failed.
func runSuite(ctx context.Context, neutronClient *neutron.NeutronClient) bool {
	results := make([]checks.Result, 0)
	for _, ipVersion := range config.Global.Default.IPVersions {
		// extension list may have changed between scheduled runs
		neutronClient.ResetCache()
		results = append(results, checks.RunAll(ctx, neutronClient, ipVersion)...)
	}

	if err := client.WriteTable(results); err != nil {
		logg.Fatal(err.Error())
	}
	return !checks.Failed(results)
}

func runScheduled(ctx context.Context, neutronClient *neutron.NeutronClient, interval time.Duration) {
	scheduler, err := gocron.NewScheduler(gocron.WithLogger(NewGoCronLogger()))
	if err != nil {
		logg.Fatal(err.Error())
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if !runSuite(ctx, neutronClient) {
				log.Error("suite finished with failures")
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		logg.Fatal(err.Error())
	}

	scheduler.Start()
	select {}
}
