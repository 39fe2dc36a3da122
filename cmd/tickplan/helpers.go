package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

var stdin = bufio.NewReader(os.Stdin)

// readLine prompts on stdout and reads one trimmed line from stdin.
func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/n question.
func confirm(prompt string) (bool, error) {
	answer, err := readLine(prompt + " (y/n): ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// extractAuthCode pulls the authorization code and state out of the URL the
// provider redirected to. A bare code pasted without the URL is accepted too.
func extractAuthCode(raw string) (code, state string) {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		q := parsed.Query()
		if c := q.Get("code"); c != "" {
			return c, q.Get("state")
		}
	}
	if !strings.Contains(raw, "=") && len(raw) > 10 {
		return raw, ""
	}
	return "", ""
}

// horizon builds the day offsets 0..days-1.
func horizon(days int) []int {
	if days < 1 {
		days = 1
	}
	h := make([]int, days)
	for i := range h {
		h[i] = i
	}
	return h
}
