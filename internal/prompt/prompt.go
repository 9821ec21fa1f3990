// Package prompt asks the user for the API token.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/term"
)

const tokenPrompt = "Enter your API token: "

var ErrEmptyToken = eris.New("prompt: token is required")

// Token writes the prompt to w and reads one line from r. When r is a terminal the
// input is not echoed. Blank input returns ErrEmptyToken.
func Token(w io.Writer, r io.Reader) (string, error) {
	fmt.Fprint(w, tokenPrompt)

	var line string
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", eris.Wrap(err, "prompt: read token")
		}
		line = string(b)
	} else {
		scanner := bufio.NewScanner(r)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", eris.Wrap(err, "prompt: read token")
			}
			return "", ErrEmptyToken
		}
		line = scanner.Text()
	}

	token := strings.TrimSpace(line)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
