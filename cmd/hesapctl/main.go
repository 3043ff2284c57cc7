// Command hesapctl administers a hesap database: schema migrations, branches,
// users, access tokens, stock ledger checks and the audit trail.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
