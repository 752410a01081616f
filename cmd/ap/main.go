// ap pastes a CSV work list into a chat web application, one prompt at a time.
package main

import (
	"os"

	"github.com/steveyegge/autoprompter/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
