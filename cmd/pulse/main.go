package main

import "github.com/comitanigiacomo/syllabus-pulse/internal/cli"

func main() {
	cli.Execute()
}
