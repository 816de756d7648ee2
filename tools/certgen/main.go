// Package main writes a self-signed server certificate for local HTTPS.
// Point the server at the result with -tls-cert certs/server.crt
// -tls-key certs/server.key.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/BankPortal/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs")
	validFor := flag.Duration("valid-for", 365*24*time.Hour, "certificate lifetime")
	flag.Parse()

	certPath, keyPath, err := certgen.WriteServerCertificate(*dir, strings.Split(*hosts, ","), *validFor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s and %s\n", certPath, keyPath)
}
