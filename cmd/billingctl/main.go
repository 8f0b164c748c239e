// billingctl herramienta de operación del motor de convenciones.
//
//	billingctl migrate up|down|status|force
//	billingctl report aging [--as-of YYYY-MM-DD] [--output table|json]
//	billingctl token --user <id> --role admin|billing|auditor
package main

import (
	"fmt"
	"os"
)

func main() {
	app := &cliApp{}
	if err := newRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
