package export

// Statement defines tabular payment-statement content handed to a renderer.
type Statement struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}
