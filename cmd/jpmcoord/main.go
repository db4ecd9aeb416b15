// Command jpmcoord inspects jpm coordinates and resolves them against a
// repository fixture.
//
//	jpmcoord parse org.foo:bar@1.2*
//	jpmcoord phases
//	jpmcoord checksum <hex-id>...
//	jpmcoord resolve --repo repo.yaml org.foo:bar
//	jpmcoord install --repo repo.yaml --manifest JPM.bazel --lock JPM.lock
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
