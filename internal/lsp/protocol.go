package lsp

import "go.lsp.dev/protocol"

// Client requests from LSP 3.16 sent by the server
const (
	methodShowDocument    = "window/showDocument"
	methodCodeLensRefresh = "workspace/codeLens/refresh"
)

// codeLens is protocol.CodeLens with a command that also carries the tooltip
// editors show when hovering the lens title.
type codeLens struct {
	Range   protocol.Range `json:"range"`
	Command *lensCommand   `json:"command,omitempty"`
}

type lensCommand struct {
	protocol.Command
	Tooltip string `json:"tooltip,omitempty"`
}
