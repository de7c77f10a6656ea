package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var root = logrus.New()

// Per-subsystem loggers so output stays attributable.
var (
	Internal = root.WithField("subsystem", "internal")
	Spark    = root.WithField("subsystem", "spark")
	Events   = root.WithField("subsystem", "events")
	Payments = root.WithField("subsystem", "payments")
	Store    = root.WithField("subsystem", "store")
	RPC      = root.WithField("subsystem", "rpc")
)

func init() {
	root.SetOutput(os.Stdout)
	root.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts the global log level. Unknown levels are ignored.
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		root.SetLevel(lvl)
	}
}
