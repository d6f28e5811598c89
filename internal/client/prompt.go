package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptRegistration asks for the registration fields on out and reads
// one answer per line from in. The password is kept verbatim so that
// leading or trailing spaces reach the server's policy check.
func PromptRegistration(in io.Reader, out io.Writer) (RegisterRequest, error) {
	scanner := bufio.NewScanner(in)
	ask := func(label string) (string, error) {
		fmt.Fprintf(out, "%s: ", label)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return scanner.Text(), nil
	}

	var req RegisterRequest
	var err error
	if req.FullName, err = ask("Full name"); err != nil {
		return req, err
	}
	if req.UserName, err = ask("User name"); err != nil {
		return req, err
	}
	if req.Nickname, err = ask("Nickname (optional)"); err != nil {
		return req, err
	}
	if req.Password, err = ask("Password"); err != nil {
		return req, err
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.UserName = strings.TrimSpace(req.UserName)
	req.Nickname = strings.TrimSpace(req.Nickname)
	return req, nil
}
