package remote

import (
	"fmt"
	"strings"
)

// Echo prints the command about to run in the fixed, diffable form the
// harness uses for dry runs and run transcripts.
func Echo(label string, argv []string) {
	fmt.Printf("# %s = %s\n", label, strings.Join(argv, " "))
}
