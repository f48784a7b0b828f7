package main

import (
	"bufio"
	"fmt"
	"strings"
)

const prompt = "Enter a URL (or 'exit' to quit): "

// Run executes the interactive shell. It reads one URL per line until
// "exit", end of input, or cancellation.
func (c *ShellCmd) Run(deps *Dependencies) error {
	fmt.Fprintln(deps.Stdout, "Web Crawler")
	fmt.Fprintln(deps.Stdout, "====================")

	scanner := bufio.NewScanner(deps.Stdin)
	for {
		fmt.Fprint(deps.Stdout, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(deps.Stdout)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "exit" {
			fmt.Fprintln(deps.Stdout, "Exiting program...")
			return nil
		}
		if input == "" {
			fmt.Fprintln(deps.Stdout, "Please enter a valid URL.")
			continue
		}

		// Errors are already reported; only cancellation ends the shell.
		_, _ = crawlURL(deps, input)
		if err := deps.Ctx.Err(); err != nil {
			return err
		}
	}
}
