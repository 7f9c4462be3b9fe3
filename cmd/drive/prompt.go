package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptOut is where prompts are printed; stdout may be the download.
var promptOut io.Writer = os.Stderr

// promptPassphrase reads a passphrase without echo. With confirm set it
// asks twice and rejects empty or mismatched input.
func promptPassphrase(label string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprintf(promptOut, "%s: ", label)
	p1, err := readPassword(fd)
	fmt.Fprintln(promptOut)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	pass := strings.TrimRight(string(p1), "\r\n")
	if !confirm {
		return pass, nil
	}

	if pass == "" {
		return "", errors.New("passphrase cannot be empty")
	}
	fmt.Fprintf(promptOut, "Confirm %s: ", strings.ToLower(label))
	p2, err := readPassword(fd)
	fmt.Fprintln(promptOut)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if pass != strings.TrimRight(string(p2), "\r\n") {
		return "", errors.New("passphrases do not match")
	}
	return pass, nil
}
