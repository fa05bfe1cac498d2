package ospfs

import "github.com/sirupsen/logrus"

// logger is the structured-logging seam described in SPEC_FULL.md §B.1: a
// thin alias over logrus so every layer can log without caring whether the
// caller supplied its own *logrus.Entry or left it at the package default.
type logger = logrus.FieldLogger

func defaultLogger() logger {
	return logrus.StandardLogger().WithField("component", "ospfs")
}
