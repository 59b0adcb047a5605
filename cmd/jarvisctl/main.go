// Command jarvisctl supervises the JarvisFi dashboard.
package main

import (
	"os"

	"github.com/jarvisfi/jarvisfi/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
