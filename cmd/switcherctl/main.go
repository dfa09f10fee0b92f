// switcherctl is a terminal client for the variant switcher API: it lists,
// adds and deletes variant sets, and runs matches the way the popup does.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
