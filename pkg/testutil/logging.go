// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Importing the package silences logrus unless tests run verbosely.
func init() {
	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			logrus.SetLevel(logrus.TraceLevel)
			return
		}
	}

	logrus.StandardLogger().Out = io.Discard
}

// DisableLogging discards log output until the returned reset is called.
func DisableLogging() (reset func()) {
	originalLogOutput := logrus.StandardLogger().Out
	logrus.StandardLogger().Out = io.Discard
	return func() {
		logrus.StandardLogger().Out = originalLogOutput
	}
}
