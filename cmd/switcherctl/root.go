package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

var rootCmd = &cobra.Command{
	Use:           "switcherctl",
	Short:         "Manage site variant sets from the terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(resetCmd)
}

func baseURL() string {
	if u := os.Getenv("SWITCHER_BASE_URL"); strings.TrimSpace(u) != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

func apiKey() string {
	return os.Getenv("SWITCHER_API_KEY")
}

func profile() string {
	return os.Getenv("SWITCHER_PROFILE")
}

// call performs an API request and decodes the JSON response into out
// (when out is non-nil).
func call(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL()+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if k := apiKey(); k != "" {
		req.Header.Set("Authorization", "Bearer "+k)
	}
	if p := profile(); p != "" {
		req.Header.Set("X-Profile-ID", p)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(payload))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
