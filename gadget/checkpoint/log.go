package checkpoint

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "checkpoint")
