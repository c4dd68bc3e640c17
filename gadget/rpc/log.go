package rpc

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "rpc")
