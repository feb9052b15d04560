package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func stdinFd() int { return int(syscall.Stdin) }

func readLine(r *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	t, _ := r.ReadString('\n')
	return strings.TrimSpace(t)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(stdinFd())
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read password:", err)
		return ""
	}
	return strings.TrimSpace(string(b))
}

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}
