package dispatcher

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "dispatcher")
