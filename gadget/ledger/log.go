package ledger

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "ledger")
