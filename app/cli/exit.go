package cli

import (
	"context"
	"errors"
	"io/fs"
	"strconv"

	"github.com/jessevdk/go-flags"
	"github.com/statalih/statalih/app/cfg"
	"github.com/statalih/statalih/app/feed"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitInvalidOption = 1
	ExitInput         = 2
	ExitConfig        = 3
	ExitFile          = 4
	ExitDatabase      = 5
	ExitNetwork       = 6
	ExitParse         = 7
	ExitAlreadyExists = 8
	ExitInterrupted   = 130
)

// exitError carries an exit code for an outcome that has already been
// reported. A nil err prints nothing.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		exitErr      *exitError
		flagsErr     *flags.Error
		invalidURL   *feed.InvalidURLError
		badScheme    *feed.UnsupportedSchemeError
		badCoords    *feed.InvalidCoordinatesError
		unknownPlace *feed.UnknownPlaceError
		fetchErr     *feed.FetchError
		parseErr     *feed.ParseError
		conflict     *feed.ConflictError
		exists       *feed.AlreadyExistsError
		pathErr      *fs.PathError
	)

	switch {
	case errors.As(err, &exitErr):
		return exitErr.code
	case errors.As(err, &flagsErr):
		if flagsErr.Type == flags.ErrHelp {
			return ExitOK
		}
		return ExitInvalidOption
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, cfg.ErrInvalid):
		return ExitConfig
	case errors.As(err, &invalidURL), errors.As(err, &badScheme),
		errors.As(err, &badCoords), errors.As(err, &unknownPlace):
		return ExitInput
	case errors.As(err, &fetchErr):
		return ExitNetwork
	case errors.As(err, &parseErr):
		return ExitParse
	case errors.As(err, &exists):
		return ExitAlreadyExists
	case errors.As(err, &conflict):
		return ExitDatabase
	case errors.As(err, &pathErr):
		return ExitFile
	default:
		// everything else comes from the store
		return ExitDatabase
	}
}
