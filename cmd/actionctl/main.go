// actionctl is a developer tool for poking a running actiond: fetch an
// order's discovery payload, build a fill transaction, or read the audit
// trail.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/goccy/go-json"

	"github.com/uhyunpark/otc-actions/pkg/storage"
	"github.com/uhyunpark/otc-actions/pkg/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "discover":
		runDiscover(os.Args[2:])
	case "fill":
		runFill(os.Args[2:])
	case "audit":
		runAudit(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  actionctl discover -base URL ORDER_ID
  actionctl fill -base URL -amount N -account ADDR ORDER_ID
  actionctl audit -path DIR [-n LIMIT]`)
	os.Exit(2)
}

func runDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	base := fs.String("base", "http://localhost:8080", "actiond base URL")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/actions/orders/%s", *base, fs.Arg(0)))
	if err != nil {
		fatal(err)
	}
	defer resp.Body.Close()
	dump(resp)
}

func runFill(args []string) {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	base := fs.String("base", "http://localhost:8080", "actiond base URL")
	amount := fs.String("amount", "", "fill amount in display units")
	account := fs.String("account", "", "requestor wallet address")
	fs.Parse(args)
	if fs.NArg() != 1 || *amount == "" || *account == "" {
		usage()
	}

	body, err := json.Marshal(map[string]string{"account": *account})
	if err != nil {
		fatal(err)
	}
	url := fmt.Sprintf("%s/api/actions/orders/%s?amount=%s", *base, fs.Arg(0), *amount)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fatal(err)
	}
	defer resp.Body.Close()
	dump(resp)
}

func runAudit(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	path := fs.String("path", "data/audit", "audit log directory")
	limit := fs.Int("n", 20, "records to show")
	fs.Parse(args)

	logger, err := util.NewLogger("")
	if err != nil {
		fatal(err)
	}
	audit, err := storage.OpenAuditLog(*path, logger)
	if err != nil {
		fatal(err)
	}
	defer audit.Close()

	records, err := audit.Tail(*limit)
	if err != nil {
		fatal(err)
	}
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(line))
	}
}

func dump(resp *http.Response) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("%s\n", resp.Status)
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
		return
	}
	fmt.Println(string(raw))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
