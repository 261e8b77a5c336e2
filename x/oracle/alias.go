package oracle

import (
	"github.com/flightsurety/relay/x/oracle/keeper"
	"github.com/flightsurety/relay/x/oracle/types"
)

const (
	ModuleName = types.ModuleName

	StatusCodeUnknown       = types.StatusCodeUnknown
	StatusCodeOnTime        = types.StatusCodeOnTime
	StatusCodeLateAirline   = types.StatusCodeLateAirline
	StatusCodeLateWeather   = types.StatusCodeLateWeather
	StatusCodeLateTechnical = types.StatusCodeLateTechnical
	StatusCodeLateOther     = types.StatusCodeLateOther
)

var (
	// functions aliases
	NewKeeper = keeper.NewKeeper
	NewOracle = types.NewOracle

	StatusCodeFromString = types.StatusCodeFromString
	IsValidStatusCode    = types.IsValidStatusCode

	// variable aliases
	ModuleCdc = types.ModuleCdc

	ErrDuplicateRegistration = types.ErrDuplicateRegistration
	ErrRegistrySealed        = types.ErrRegistrySealed
	ErrInvalidIndexes        = types.ErrInvalidIndexes
	ErrMalformedEvent        = types.ErrMalformedEvent
	ErrSubmission            = types.ErrSubmission
)

type (
	Keeper             = keeper.Keeper
	Oracle             = types.Oracle
	Indexes            = types.Indexes
	StatusCode         = types.StatusCode
	OracleRequestEvent = types.OracleRequestEvent
	Gateway            = types.Gateway

	MalformedEventError        = types.MalformedEventError
	SubmissionError            = types.SubmissionError
	DuplicateRegistrationError = types.DuplicateRegistrationError
)
