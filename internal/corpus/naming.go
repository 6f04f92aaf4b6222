package corpus

import (
	"fmt"

	"github.com/hupe1980/scalareval/scalarset"
)

// FileName returns the canonical corpus file name for a representation,
// set count and set size. Runs use it to find corpora generated earlier.
func FileName(kind scalarset.Kind, setCount, setSize int) string {
	return fmt.Sprintf("%s_%d_sets_with_%d_values.bin", kind, setCount, setSize)
}
