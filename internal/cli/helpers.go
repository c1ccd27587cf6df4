package cli

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"
)

// readPassphrase prompts on out and reads a passphrase from in, without echo
// when in is a terminal.
func readPassphrase(in io.Reader, out io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return nil, err
		}
		return pass, nil
	}

	// Fallback for non-terminal
	reader := bufio.NewReader(in)
	pass, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return []byte(strings.TrimSpace(pass)), nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatInt renders v as decimal or 0x-prefixed hex.
func formatInt(v *big.Int, format string) string {
	if format == "hex" {
		return fmt.Sprintf("%#x", v)
	}
	return v.String()
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printValue(w io.Writer, label string, v *big.Int, format string) {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)

	if label != "" {
		cyan.Fprintf(w, "%s: ", label)
	}
	green.Fprintln(w, formatInt(v, format))
}
