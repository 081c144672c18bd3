// Command piholectl calls the Pi-hole dashboard API from the shell and
// prints the decoded responses as JSON.
//
//	piholectl --base-url http://pi.hole:8000 summary --hours 12
//	piholectl domain-add --type wildcard ads.example.com
//	API_BASE_URL=http://pi.hole:8000 piholectl --retries 2 devices
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
