package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// StatusCode is the flight status reported by an oracle.
type StatusCode uint8

const (
	StatusCodeUnknown       StatusCode = 0
	StatusCodeOnTime        StatusCode = 10
	StatusCodeLateAirline   StatusCode = 20
	StatusCodeLateWeather   StatusCode = 30
	StatusCodeLateTechnical StatusCode = 40
	StatusCodeLateOther     StatusCode = 50

	StatusCodeUnknownName       = "unknown"
	StatusCodeOnTimeName        = "on-time"
	StatusCodeLateAirlineName   = "late-airline"
	StatusCodeLateWeatherName   = "late-weather"
	StatusCodeLateTechnicalName = "late-technical"
	StatusCodeLateOtherName     = "late-other"
)

// NoPayoutStatusCodes are the codes that do not credit insured passengers.
var NoPayoutStatusCodes = []StatusCode{
	StatusCodeUnknown,
	StatusCodeOnTime,
	StatusCodeLateWeather,
	StatusCodeLateTechnical,
	StatusCodeLateOther,
}

var statusCodeToName = map[StatusCode]string{
	StatusCodeUnknown:       StatusCodeUnknownName,
	StatusCodeOnTime:        StatusCodeOnTimeName,
	StatusCodeLateAirline:   StatusCodeLateAirlineName,
	StatusCodeLateWeather:   StatusCodeLateWeatherName,
	StatusCodeLateTechnical: StatusCodeLateTechnicalName,
	StatusCodeLateOther:     StatusCodeLateOtherName,
}

var statusNameToCode = map[string]StatusCode{
	StatusCodeUnknownName:       StatusCodeUnknown,
	StatusCodeOnTimeName:        StatusCodeOnTime,
	StatusCodeLateAirlineName:   StatusCodeLateAirline,
	StatusCodeLateWeatherName:   StatusCodeLateWeather,
	StatusCodeLateTechnicalName: StatusCodeLateTechnical,
	StatusCodeLateOtherName:     StatusCodeLateOther,
}

// StatusCodeFromString parses a status name. Returns ff if invalid.
func StatusCodeFromString(str string) (StatusCode, error) {
	code, ok := statusNameToCode[str]
	if !ok {
		return StatusCode(0xff), errors.Wrapf(ErrInvalidStatusCode, "'%s' is not a valid status", str)
	}
	return code, nil
}

func IsValidStatusCode(code StatusCode) bool {
	_, ok := statusCodeToName[code]
	return ok
}

// IsPayout reports whether the contract credits insurees for this status.
func (code StatusCode) IsPayout() bool {
	return code == StatusCodeLateAirline
}

func (code StatusCode) String() string {
	return statusCodeToName[code]
}

// Marshals to JSON using the status name
func (code StatusCode) MarshalJSON() ([]byte, error) {
	if !IsValidStatusCode(code) {
		return nil, errors.Wrapf(ErrInvalidStatusCode, "%d", uint8(code))
	}
	return json.Marshal(code.String())
}

func (code *StatusCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := StatusCodeFromString(s)
	if err != nil {
		return err
	}
	*code = parsed
	return nil
}
