package main

import (
	"time"

	"github.com/spf13/pflag"

	"cellmon/backend/services/cellular-poller/internal/config"
)

type options struct {
	configPath  string
	host        string
	user        string
	password    string
	hostKey     string
	databaseURL string
	hypertables bool
	interval    int
	quiet       bool
	debug       bool
	metricsAddr string
	redisAddr   string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("cellular-poller", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default: $CONFIG_FILE)")
	fs.StringVarP(&opts.host, "host", "H", "", "host name or IP address of the router")
	fs.StringVarP(&opts.user, "user", "U", config.DefaultUser, "SSH user on the router")
	fs.StringVarP(&opts.password, "password", "P", "", "SSH password on the router")
	fs.StringVarP(&opts.hostKey, "host-key", "K", "", "base64 SSH host key of the router (default: $HOST_KEY)")
	fs.StringVar(&opts.databaseURL, "database-url", config.DefaultDatabaseURL, "Postgres database URL")
	fs.BoolVar(&opts.hypertables, "hypertables", false, "convert the table into a TimescaleDB hypertable")
	fs.IntVarP(&opts.interval, "interval", "i", int(config.DefaultInterval/time.Second), "polling interval in seconds")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVar(&opts.debug, "debug", false, "log debug output")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /health and /metrics on this address")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "mirror the latest sample into this redis")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

// overrides applies the flags that were set explicitly, so unset flags leave file and
// environment values alone.
func overrides(fs *pflag.FlagSet, opts *options) func(*config.Config) {
	return func(cfg *config.Config) {
		set := func(name string, apply func()) {
			if fs.Changed(name) {
				apply()
			}
		}
		set("host", func() { cfg.Router.Host = opts.host })
		set("user", func() { cfg.Router.User = opts.user })
		set("password", func() { cfg.Router.Password = opts.password })
		set("host-key", func() { cfg.Router.HostKey = opts.hostKey })
		set("database-url", func() { cfg.Database.URL = opts.databaseURL })
		set("hypertables", func() { cfg.Database.Hypertables = opts.hypertables })
		set("interval", func() { cfg.Poll.Interval = time.Duration(opts.interval) * time.Second })
		set("quiet", func() { cfg.Log.Quiet = opts.quiet })
		set("debug", func() { cfg.Log.Debug = opts.debug })
		set("metrics-addr", func() { cfg.HTTP.Addr = opts.metricsAddr })
		set("redis-addr", func() { cfg.Redis.Addr = opts.redisAddr })
	}
}
