package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ErrorResponse is the body of every non-2xx REST response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteErrorResponse writes status and a JSON error body.
func WriteErrorResponse(w http.ResponseWriter, status int, err string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	bz, _ := json.Marshal(ErrorResponse{Error: err})
	w.Write(bz)
}

// PostProcessResponse writes response as JSON. Raw []byte responses are
// written unchanged.
func PostProcessResponse(w http.ResponseWriter, response interface{}, indent bool) {
	var output []byte
	switch res := response.(type) {
	case []byte:
		output = res
	default:
		var err error
		output, err = marshal(response, indent)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(output)
}

// PrintOutput writes a query result for the CLI. "text" uses the value's
// String form when it has one.
func PrintOutput(w io.Writer, output string, v interface{}) error {
	if output == "text" {
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w, s.String())
			return err
		}
	}
	bz, err := marshal(v, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}

func marshal(v interface{}, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
