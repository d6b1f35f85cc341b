// Intake CLI - Command line client for the intake submission service
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/eldtechnologies/intake/clients/go/intake"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("INTAKE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := intake.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "submit":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: intake submit <name> <email> [message]")
			os.Exit(1)
		}
		message := ""
		if len(os.Args) > 4 {
			message = os.Args[4]
		}
		sub, err := client.CreateSubmission(os.Args[2], os.Args[3], message)
		exitOnError(err)
		fmt.Printf("Stored submission #%d at %s\n", sub.ID, sub.CreatedAt.Format("2006-01-02 15:04:05"))

	case "list":
		limit, offset := 20, 0
		if len(os.Args) > 2 {
			limit, _ = strconv.Atoi(os.Args[2])
		}
		if len(os.Args) > 3 {
			offset, _ = strconv.Atoi(os.Args[3])
		}
		resp, err := client.ListSubmissions(limit, offset)
		exitOnError(err)
		for _, sub := range resp.Submissions {
			ts := sub.CreatedAt.Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] #%d %s <%s>", ts, sub.ID, sub.Name, sub.Email)
			if sub.Message != "" {
				fmt.Printf(": %s", sub.Message)
			}
			fmt.Println()
		}
		fmt.Printf("%d of %d submissions\n", len(resp.Submissions), resp.Total)

	case "stats":
		resp, err := client.Stats()
		exitOnError(err)
		printJSON(resp)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Intake CLI - contact form submission service

Usage: intake <command> [options]

Commands:
  submit <name> <email> [message]  Create a submission
  list [limit] [offset]            List submissions, newest first (admin)
  stats                            Show submission statistics (admin)
  health                           Check service health

Environment:
  INTAKE_URL             Server URL (default: http://localhost:8080)
  INTAKE_ADMIN_USER      Admin username for list/stats
  INTAKE_ADMIN_PASSWORD  Admin password for list/stats`)
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	var apiErr *intake.APIError
	if errors.As(err, &apiErr) {
		for _, v := range apiErr.Violations {
			fmt.Fprintln(os.Stderr, "  -", v.Reason)
		}
	}
	os.Exit(1)
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
