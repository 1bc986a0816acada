package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// promptString reads one trimmed line from stdin after printing the label.
func promptString(cmd *cobra.Command, label string) string {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// promptList reads a comma-separated answer. An empty answer or "all"
// yields nil, meaning no filter.
func promptList(cmd *cobra.Command, label string) []string {
	answer := promptString(cmd, label)
	if answer == "" || strings.EqualFold(answer, "all") {
		return nil
	}
	var items []string
	for _, item := range strings.Split(answer, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
