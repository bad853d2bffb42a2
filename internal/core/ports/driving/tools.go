package driving

// ToolService reports the availability of external tools.
type ToolService interface {
	// Check locates every external tool the build can use.
	Check() []ToolStatus
}

// ToolStatus is the lookup result for one tool.
type ToolStatus struct {
	Name    string
	Purpose string
	Path    string
	Found   bool
}
