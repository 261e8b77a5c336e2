package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bgentry/speakeasy"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// GetConfirmation will request user give the confirmation from stdin.
// "y", "Y", "yes", "YES", and "Yes" all count as confirmations.
// If the input is not recognized, it returns false and a nil error.
func GetConfirmation(prompt string, buf *bufio.Reader) (bool, error) {
	if InputIsTty() {
		fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	}

	response, err := readLineFromBuf(buf)
	if err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	if len(response) > 0 && response[0] == 'y' {
		return true, nil
	}

	return false, nil
}

// GetMnemonic reads the oracle wallet mnemonic. On a terminal the input is
// not echoed; piped input is read one line from buf.
func GetMnemonic(prompt string, buf *bufio.Reader) (string, error) {
	var (
		mnemonic string
		err      error
	)
	if InputIsTty() {
		mnemonic, err = speakeasy.FAsk(os.Stderr, prompt)
	} else {
		mnemonic, err = readLineFromBuf(buf)
	}
	if err != nil {
		return "", err
	}

	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return "", errors.New("mnemonic is required")
	}
	return mnemonic, nil
}

// InputIsTty returns true iff we have an interactive prompt,
// where we can disable echo.
// If false, we can optimize for piped input from another command
func InputIsTty() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// readLineFromBuf reads one line from stdin.
// Subsequent calls reuse the same buffer, so we don't lose
// any input when reading twice
func readLineFromBuf(buf *bufio.Reader) (string, error) {
	line, err := buf.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
