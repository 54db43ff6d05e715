package judge

import "strings"

// Hooks is the one extension point an embedder implements to tell the
// session how to compile and run a submission. Both methods receive the
// in-container working directory so a hook can build an absolute path.
type Hooks interface {
	CompileCommand(workDir string) string
	RunCommand(workDir string) string
}

// TemplateHooks is a concrete Hooks for callers who just want to supply
// shell command templates — CLI use without writing Go. "{workdir}" is
// substituted with the container's working directory.
type TemplateHooks struct {
	Compile string
	Run     string
}

func (h TemplateHooks) CompileCommand(workDir string) string {
	return strings.ReplaceAll(h.Compile, "{workdir}", workDir)
}

func (h TemplateHooks) RunCommand(workDir string) string {
	return strings.ReplaceAll(h.Run, "{workdir}", workDir)
}
