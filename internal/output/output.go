package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"multitool/internal/ui"
)

// JSONMode controls whether output is JSON or human-readable
var JSONMode bool

// Stdout and exit are replaced in tests.
var (
	Stdout io.Writer = os.Stdout
	exit             = os.Exit
)

// Result is the envelope of every --json response.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Kinded is implemented by errors that carry a machine-readable class, such
// as the "kind" field of a server error response.
type Kinded interface {
	ErrorKind() string
}

// Print outputs data. In JSON mode, marshals to JSON. Otherwise calls the textFn.
func Print(data any, textFn func()) {
	if JSONMode {
		out, err := json.MarshalIndent(Result{Success: true, Data: data}, "", "  ")
		if err != nil {
			PrintError(fmt.Errorf("encode output: %w", err))
			return
		}
		fmt.Fprintln(Stdout, string(out))
		return
	}
	textFn()
}

// PrintError reports err and exits with status 1.
func PrintError(err error) {
	if JSONMode {
		res := Result{Success: false, Error: err.Error()}
		var k Kinded
		if errors.As(err, &k) {
			res.Kind = k.ErrorKind()
		}
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Fprintln(Stdout, string(out))
		exit(1)
		return
	}
	ui.ShowError("Error", err)
	exit(1)
}
