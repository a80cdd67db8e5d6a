package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/cli"
	sectls "mercator-hq/stormwatch/pkg/security/tls"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage TLS certificates for the HTTP server",
	Long: `Generate and check the certificates used when server.tls.enabled is set.

Examples:
  # Self-signed pair for local testing
  stormwatch certs generate --host localhost,127.0.0.1 --output certs/

  # Check a pair before deploying it
  stormwatch certs check --cert certs/server.crt --key certs/server.key`,
}

var certsGenerateFlags struct {
	hosts    []string
	org      string
	validity int
	output   string
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed certificate for testing",
	Long: `Generate a self-signed ECDSA P-256 certificate and key.

The certificate is written to server.crt and the key to server.key (mode
0600) in the output directory. Self-signed certificates are for local
testing only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateCerts(cmd.OutOrStdout(), certsGenerateFlags.output, certsGenerateFlags.hosts,
			certsGenerateFlags.org, time.Duration(certsGenerateFlags.validity)*24*time.Hour)
	},
}

var certsCheckFlags struct {
	certFile string
	keyFile  string
	caFile   string
}

var certsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a certificate, its key and chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkCert(cmd.OutOrStdout(), certsCheckFlags.certFile, certsCheckFlags.keyFile, certsCheckFlags.caFile, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(certsCmd)
	certsCmd.AddCommand(certsGenerateCmd, certsCheckCmd)

	certsGenerateCmd.Flags().StringSliceVar(&certsGenerateFlags.hosts, "host", []string{"localhost", "127.0.0.1"}, "hostnames and IPs for the certificate")
	certsGenerateCmd.Flags().StringVar(&certsGenerateFlags.org, "org", "Stormwatch", "organization name")
	certsGenerateCmd.Flags().IntVar(&certsGenerateFlags.validity, "validity", 365, "validity in days")
	certsGenerateCmd.Flags().StringVarP(&certsGenerateFlags.output, "output", "o", "certs", "output directory")

	certsCheckCmd.Flags().StringVar(&certsCheckFlags.certFile, "cert", "", "certificate file (required)")
	certsCheckCmd.Flags().StringVar(&certsCheckFlags.keyFile, "key", "", "private key file")
	certsCheckCmd.Flags().StringVar(&certsCheckFlags.caFile, "ca", "", "CA bundle to verify the chain against")
	_ = certsCheckCmd.MarkFlagRequired("cert")
}

func generateCerts(w io.Writer, dir string, hosts []string, org string, validity time.Duration) error {
	if validity <= 0 {
		return cli.NewCommandError("certs generate", fmt.Errorf("validity must be at least one day"))
	}
	certPEM, keyPEM, err := sectls.GenerateSelfSigned(sectls.SelfSignedOptions{
		Hosts:        hosts,
		Organization: org,
		Validity:     validity,
	})
	if err != nil {
		return cli.NewCommandError("certs generate", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	if err := os.WriteFile(certFile, certPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	fmt.Fprintf(w, "✓ Certificate: %s\n", certFile)
	fmt.Fprintf(w, "✓ Private key: %s\n", keyFile)
	fmt.Fprintf(w, "  Hosts: %s\n", strings.Join(hosts, ", "))
	fmt.Fprintf(w, "  Valid for %d days\n", int(validity.Hours()/24))
	return nil
}

func checkCert(w io.Writer, certFile, keyFile, caFile string, now time.Time) error {
	cert, err := sectls.LoadCertificateFile(certFile)
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return cli.NewInputError(certFile, err)
	}

	if keyFile != "" {
		if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
			fmt.Fprintln(w, "✗ Certificate and key do not match")
			return cli.NewInputError(keyFile, err)
		}
		fmt.Fprintln(w, "✓ Certificate and key match")
	}

	if caFile != "" {
		if err := sectls.ValidateCertificateChain(cert, caFile); err != nil {
			fmt.Fprintln(w, "✗ Certificate chain invalid")
			return cli.NewInputError(caFile, err)
		}
		fmt.Fprintln(w, "✓ Certificate chain valid")
	}

	if err := sectls.ValidateX509Certificate(cert, now); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return cli.NewInputError(certFile, err)
	}
	fmt.Fprintf(w, "✓ Certificate valid until %s\n", cert.NotAfter.Format("2006-01-02"))
	if days, warning := sectls.CheckCertificateExpiration(cert, now); warning != "" {
		fmt.Fprintf(w, "⚠ Certificate expires in %d days\n", days)
	}

	fmt.Fprintf(w, "\n  Subject: %s\n", cert.Subject.CommonName)
	fmt.Fprintf(w, "  Issuer: %s\n", cert.Issuer.CommonName)
	fmt.Fprintf(w, "  Serial: %x\n", cert.SerialNumber)
	if len(cert.DNSNames) > 0 {
		fmt.Fprintf(w, "  DNS names: %s\n", strings.Join(cert.DNSNames, ", "))
	}
	for _, ip := range cert.IPAddresses {
		fmt.Fprintf(w, "  IP address: %s\n", ip)
	}
	return nil
}
