package cmd

import (
	"github.com/urfave/cli/v2"
)

// Flags is the process wide view of the shared flags.
type Flags struct {
	DataDir      string
	ForceClearDB bool
}

var sharedConfig = &Flags{}

// Get retrieves the shared flag config.
func Get() *Flags {
	return sharedConfig
}

// Init sets the shared flag config.
func Init(c *Flags) {
	sharedConfig = c
}

// InitWithReset sets the shared flag config and returns a function that
// restores the previous one. It is meant for tests.
func InitWithReset(c *Flags) func() {
	prev := sharedConfig
	Init(c)
	return func() {
		Init(prev)
	}
}

// ConfigureFromContext reads the shared flags from the command line.
func ConfigureFromContext(cliCtx *cli.Context) {
	Init(&Flags{
		DataDir:      cliCtx.String(DataDirFlag.Name),
		ForceClearDB: cliCtx.Bool(ForceClearDB.Name),
	})
}
