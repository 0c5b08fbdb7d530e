// sqlshift - SQL dump identifier shifter
//
// sqlshift rewrites INSERT statements in SQL dump files, moving the leading
// identifier of a table's rows by a fixed offset so datasets can be merged.
package main

import (
	"os"

	"github.com/ccollicutt/sqlshift/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
