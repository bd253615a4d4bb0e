package models

// Command names understood by every host surface
const (
	OpenFileCommand       = "railslens.openFile"
	OpenFileAtLineCommand = "railslens.openFileAtLine"
	OpenURLCommand        = "railslens.openURL"
)

// Command is the navigation target attached to a lens
type Command struct {
	Name      string `json:"name"`                // one of the railslens.* command names
	Path      string `json:"path,omitempty"`      // file to open
	Line      int    `json:"line,omitempty"`      // 0-based line inside Path
	Character int    `json:"character,omitempty"` // 0-based column inside Path
	URL       string `json:"url,omitempty"`       // external URL for OpenURLCommand
}

// Arguments returns the positional arguments passed to the host command
func (c Command) Arguments() []interface{} {
	switch c.Name {
	case OpenFileCommand:
		return []interface{}{c.Path}
	case OpenFileAtLineCommand:
		return []interface{}{c.Path, c.Line, c.Character}
	case OpenURLCommand:
		return []interface{}{c.URL}
	default:
		return nil
	}
}

// Lens is an inline, non-editable annotation attached to a document line
type Lens struct {
	Line    int      `json:"line"`              // 0-based anchor line in the scanned document
	Title   string   `json:"title"`             // text shown above the line
	Tooltip string   `json:"tooltip,omitempty"` // hover text
	Command *Command `json:"command,omitempty"` // navigation target, nil when inert
}

// Navigable reports whether the lens carries a navigation target
func (l Lens) Navigable() bool {
	return l.Command != nil && l.Command.Name != ""
}

// Document is a text buffer handed to the lens providers
type Document struct {
	Path      string // absolute file path
	Text      string // current buffer contents
	Workspace string // workspace root containing Path
}

// Lines splits the document text into lines, tolerating CRLF endings
func (d Document) Lines() []string {
	return SplitLines(d.Text)
}
