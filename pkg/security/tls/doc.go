/*
Package tls builds the HTTPS listener configuration for the stormwatch
server.

Certificates are loaded through a CertificateReloader, which watches the
certificate and key files and swaps in the new pair when either changes:

	reloader, err := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, logger)
	if err != nil {
		return err
	}
	go reloader.Watch(ctx)

	tlsConfig, err := tls.ServerConfig(&cfg.Server.TLS, reloader)

Setting ClientCAFile turns on client certificate verification, with
ClientAuth selecting how strictly it is enforced.

The package also carries the certificate checks used by the certs
subcommands: expiry, chain verification and self-signed generation for
local testing.
*/
package tls
