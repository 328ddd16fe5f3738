// Command histedit rewrites local git history without an editor.
package main

import "github.com/roasbeef/histedit/commands"

func main() {
	commands.Execute()
}
