package shared

// LoaderOp identifies an async operation that can show a spinner.
type LoaderOp string

const (
	OpFeed    LoaderOp = "feed"
	OpHistory LoaderOp = "history"
	OpExport  LoaderOp = "export"
	OpSave    LoaderOp = "save"
)

// LoaderStartMsg starts an animated spinner for an operation.
type LoaderStartMsg struct {
	Op    LoaderOp
	Label string
}

// LoaderStopMsg stops the spinner for an operation.
type LoaderStopMsg struct {
	Op LoaderOp
}
